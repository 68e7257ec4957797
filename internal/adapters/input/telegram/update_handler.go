package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	"file-utility-bot/internal/domain"
	"file-utility-bot/internal/ports/input"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/panics"
)

// Default long-poll timeout in seconds when the configured value is zero
const defaultPollTimeout = 60

// UpdateSource is the subset of *tgbotapi.BotAPI the poller uses
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type mailbox struct {
	pending []domain.InboundEvent
}

// UpdateHandler struct - Primary/Driving adapter for Telegram long polling.
// Events of one identity key are handled in arrival order by a single
// goroutine while different keys run concurrently.
type UpdateHandler struct {
	source      UpdateSource
	srv         input.BotService
	pollTimeout int

	mu        sync.Mutex
	mailboxes map[domain.IdentityKey]*mailbox
	wg        sync.WaitGroup
}

// NewUpdateHandler func - Creates new Telegram update handler
func NewUpdateHandler(source UpdateSource, srv input.BotService, pollTimeout int) *UpdateHandler {
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	return &UpdateHandler{
		source:      source,
		srv:         srv,
		pollTimeout: pollTimeout,
		mailboxes:   make(map[domain.IdentityKey]*mailbox),
	}
}

// Run polls updates until ctx is done, then waits for in-progress events
func (h *UpdateHandler) Run(ctx context.Context) {
	config := tgbotapi.NewUpdate(0)
	config.Timeout = h.pollTimeout
	updates := h.source.GetUpdatesChan(config)
	logrus.Info("Telegram polling started")

	defer func() {
		h.source.StopReceivingUpdates()
		h.wg.Wait()
		logrus.Info("Telegram polling stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			event, ok := ToEvent(update)
			if !ok {
				continue
			}
			h.Dispatch(ctx, event)
		}
	}
}

// Dispatch queues event on the mailbox of its identity key
func (h *UpdateHandler) Dispatch(ctx context.Context, event domain.InboundEvent) {
	h.mu.Lock()
	if mb, ok := h.mailboxes[event.Key]; ok {
		mb.pending = append(mb.pending, event)
		h.mu.Unlock()
		return
	}
	mb := &mailbox{pending: []domain.InboundEvent{event}}
	h.mailboxes[event.Key] = mb
	h.wg.Add(1)
	h.mu.Unlock()

	go h.drain(ctx, event.Key, mb)
}

// Wait blocks until every mailbox is empty
func (h *UpdateHandler) Wait() {
	h.wg.Wait()
}

func (h *UpdateHandler) drain(ctx context.Context, key domain.IdentityKey, mb *mailbox) {
	defer h.wg.Done()
	for {
		h.mu.Lock()
		if len(mb.pending) == 0 {
			delete(h.mailboxes, key)
			h.mu.Unlock()
			return
		}
		event := mb.pending[0]
		mb.pending = mb.pending[1:]
		h.mu.Unlock()

		h.handle(ctx, event)
	}
}

func (h *UpdateHandler) handle(ctx context.Context, event domain.InboundEvent) {
	var err error
	var catcher panics.Catcher
	catcher.Try(func() {
		err = h.srv.HandleEvent(ctx, event)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		logrus.Errorf("Recovered panic handling event from %s: %v\n%s", event.Key, recovered.Value, recovered.Stack)
		return
	}
	if err != nil {
		logrus.Errorf("Failed to handle event from %s: %v", event.Key, err)
	}
}

// ToEvent converts a Telegram update into a domain event.
// Updates without text or a supported attachment are skipped.
func ToEvent(update tgbotapi.Update) (domain.InboundEvent, bool) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return domain.InboundEvent{}, false
	}

	senderID := msg.Chat.ID
	if msg.From != nil {
		senderID = msg.From.ID
	}
	event := domain.InboundEvent{
		Key:        domain.NewIdentityKey(msg.Chat.ID, senderID),
		MessageID:  msg.MessageID,
		Text:       msg.Text,
		Attachment: attachmentOf(msg),
		ReceivedAt: time.Unix(int64(msg.Date), 0),
	}
	if event.Attachment == nil && event.Text == "" {
		return domain.InboundEvent{}, false
	}
	return event, true
}

func attachmentOf(msg *tgbotapi.Message) *domain.Attachment {
	orDefault := func(name, prefix, ext string) string {
		if name != "" {
			return name
		}
		return fmt.Sprintf("%s_%d.%s", prefix, msg.MessageID, ext)
	}

	switch {
	case msg.Document != nil:
		return &domain.Attachment{
			FileID:   msg.Document.FileID,
			FileName: orDefault(msg.Document.FileName, "file", "bin"),
			Size:     int64(msg.Document.FileSize),
		}
	case len(msg.Photo) > 0:
		// Sizes are ascending; the last one is the original resolution
		largest := msg.Photo[len(msg.Photo)-1]
		return &domain.Attachment{
			FileID:   largest.FileID,
			FileName: orDefault("", "photo", "jpg"),
			Size:     int64(largest.FileSize),
		}
	case msg.Audio != nil:
		return &domain.Attachment{
			FileID:   msg.Audio.FileID,
			FileName: orDefault(msg.Audio.FileName, "audio", "mp3"),
			Size:     int64(msg.Audio.FileSize),
		}
	case msg.Video != nil:
		return &domain.Attachment{
			FileID:   msg.Video.FileID,
			FileName: orDefault(msg.Video.FileName, "video", "mp4"),
			Size:     int64(msg.Video.FileSize),
		}
	case msg.Animation != nil:
		return &domain.Attachment{
			FileID:   msg.Animation.FileID,
			FileName: orDefault(msg.Animation.FileName, "animation", "mp4"),
			Size:     int64(msg.Animation.FileSize),
		}
	case msg.Voice != nil:
		return &domain.Attachment{
			FileID:   msg.Voice.FileID,
			FileName: orDefault("", "voice", "ogg"),
			Size:     int64(msg.Voice.FileSize),
		}
	case msg.VideoNote != nil:
		return &domain.Attachment{
			FileID:   msg.VideoNote.FileID,
			FileName: orDefault("", "video_note", "mp4"),
			Size:     int64(msg.VideoNote.FileSize),
		}
	}
	return nil
}
