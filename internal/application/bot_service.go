package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"file-utility-bot/internal/domain"
	"file-utility-bot/internal/ports/input"
	"file-utility-bot/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure BotService implements the input port
var _ input.BotService = (*BotService)(nil)

// Service defaults, applied when the configured value is zero
const (
	defaultMaxExtractEntries = 20
	defaultBroadcastDelay    = 100 * time.Millisecond
)

// Config holds the tunables of the bot service
type Config struct {
	OwnerID           int64
	BotUsername       string
	BroadcastDelay    time.Duration
	MaxExtractEntries int
}

// Transformers groups the file transformation collaborators
type Transformers struct {
	Image   output.ImageTransformer
	Media   output.MediaTransformer
	PDF     output.PDFTransformer
	Archive output.ArchiveTransformer
}

// BotService struct - Application service routing chat events through the session state machine
type BotService struct {
	cfg          Config
	messenger    output.Messenger
	registry     output.UserRegistry
	sessions     output.SessionStore
	tracker      output.ResourceTracker
	transformers Transformers
	pool         *WorkerPool
	locks        *keyedMutex

	// ctx outlives single events; completions and broadcasts send with it
	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup

	// Submitted invocations not yet completed, per identity
	pendingMu sync.Mutex
	pending   map[domain.IdentityKey]int
}

// NewBotService func - Creates new bot service
func NewBotService(
	cfg Config,
	messenger output.Messenger,
	registry output.UserRegistry,
	sessions output.SessionStore,
	tracker output.ResourceTracker,
	transformers Transformers,
	pool *WorkerPool,
) *BotService {
	if cfg.MaxExtractEntries <= 0 {
		cfg.MaxExtractEntries = defaultMaxExtractEntries
	}
	if cfg.BroadcastDelay <= 0 {
		cfg.BroadcastDelay = defaultBroadcastDelay
	}
	cfg.BotUsername = strings.TrimPrefix(strings.ToLower(cfg.BotUsername), "@")

	ctx, cancel := context.WithCancel(context.Background())
	return &BotService{
		cfg:          cfg,
		messenger:    messenger,
		registry:     registry,
		sessions:     sessions,
		tracker:      tracker,
		transformers: transformers,
		pool:         pool,
		locks:        newKeyedMutex(),
		ctx:          ctx,
		cancel:       cancel,
		pending:      make(map[domain.IdentityKey]int),
	}
}

// Close stops the worker pool and waits for pending completions to finish delivering
func (s *BotService) Close() {
	s.pool.Close()
	s.inflight.Wait()
	s.cancel()
}

func (s *BotService) markPending(key domain.IdentityKey) {
	s.pendingMu.Lock()
	s.pending[key]++
	s.pendingMu.Unlock()
}

func (s *BotService) donePending(key domain.IdentityKey) {
	s.pendingMu.Lock()
	if s.pending[key] <= 1 {
		delete(s.pending, key)
	} else {
		s.pending[key]--
	}
	s.pendingMu.Unlock()
}

// hasPending reports whether an operation launched by key has not completed yet
func (s *BotService) hasPending(key domain.IdentityKey) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return s.pending[key] > 0
}

// wait blocks until every launched operation has been delivered or discarded
func (s *BotService) wait() {
	s.inflight.Wait()
}

// HandleEvent func - Use case: route one inbound event
func (s *BotService) HandleEvent(ctx context.Context, event domain.InboundEvent) error {
	text := strings.TrimSpace(event.Text)
	chatID := event.Key.ConversationID

	if !event.HasFile() && strings.HasPrefix(text, "/") {
		if err := s.handleCommand(ctx, event, text); err != nil {
			logrus.Errorf("Failed to handle command %q from %s: %v", text, event.Key, err)
			return s.reply(ctx, chatID, humanError(err)+"\n"+defaultHint)
		}
		return nil
	}

	unlock := s.locks.Lock(event.Key)
	defer unlock()

	session, err := s.sessions.GetOrCreate(event.Key)
	if err != nil {
		logrus.Errorf("Failed to load session %s: %v", event.Key, err)
		return s.reply(ctx, chatID, humanError(err)+"\n"+defaultHint)
	}

	logrus.WithFields(logrus.Fields{
		"conversation": event.Key.ConversationID,
		"sender":       event.Key.SenderID,
		"kind":         event.Kind(),
		"step":         session.Step.String(),
	}).Info("Received event")

	if event.HasFile() {
		err = s.handleFile(ctx, event, session)
	} else {
		err = s.handleText(ctx, session, strings.ToLower(text))
	}
	if err != nil {
		logrus.Errorf("Failed to handle %s event from %s: %v", event.Kind(), event.Key, err)
		return s.reply(ctx, chatID, humanError(err)+"\n"+defaultHint)
	}
	return nil
}

// handleCommand - Conversation-wide directives, valid in every step
func (s *BotService) handleCommand(ctx context.Context, event domain.InboundEvent, text string) error {
	parts := strings.Fields(text)
	command := strings.ToLower(parts[0])
	if name, suffix, addressed := strings.Cut(command, "@"); addressed {
		if s.cfg.BotUsername != "" && suffix != s.cfg.BotUsername {
			// Addressed to another bot in a group
			return nil
		}
		command = name
	}
	chatID := event.Key.ConversationID

	logrus.WithFields(logrus.Fields{
		"conversation": event.Key.ConversationID,
		"sender":       event.Key.SenderID,
		"command":      command,
	}).Info("Received command")

	switch command {
	case "/start":
		if err := s.registry.Register(ctx, event.Key.SenderID); err != nil {
			logrus.Errorf("Failed to register user %d: %v", event.Key.SenderID, err)
		}
		return s.reply(ctx, chatID, welcomeText+mainMenuText)

	case "/help":
		return s.reply(ctx, chatID, helpText)

	case "/cancel":
		unlock := s.locks.Lock(event.Key)
		defer unlock()
		if _, err := s.sessions.Reset(event.Key); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
		return s.reply(ctx, chatID, sessionCleared+mainMenuText)

	case "/broadcast":
		return s.handleBroadcast(ctx, event, strings.TrimSpace(text[len(parts[0]):]))

	default:
		return s.reply(ctx, chatID, fmt.Sprintf("Unknown command: %s\nType /help for available commands", command))
	}
}

// handleFile - Collect while collecting, otherwise start fresh with the new file
func (s *BotService) handleFile(ctx context.Context, event domain.InboundEvent, session *domain.Session) error {
	chatID := event.Key.ConversationID

	ref, err := s.download(ctx, event.Attachment)
	if err != nil {
		return err
	}

	if session.Step.IsCollecting() {
		if err := session.Append(ref); err != nil {
			s.tracker.Discard(ref.Path)
			return err
		}
		return s.reply(ctx, chatID, fmt.Sprintf("➕ Added: %s (%d so far)\nSend more or type done.", ref.DisplayName, len(session.Collection)))
	}

	fresh, err := s.sessions.Reset(event.Key)
	if err != nil {
		s.tracker.Discard(ref.Path)
		return fmt.Errorf("failed to reset session: %w", err)
	}
	fresh.SetPrimary(ref)
	if err := fresh.Transition(domain.StepMainMenu); err != nil {
		return err
	}
	return s.reply(ctx, chatID, fmt.Sprintf("✅ Received %s\n\n%s", ref.DisplayName, mainMenuText))
}

func (s *BotService) download(ctx context.Context, attachment *domain.Attachment) (domain.FileRef, error) {
	body, err := s.messenger.Download(ctx, attachment.FileID)
	if err != nil {
		return domain.FileRef{}, fmt.Errorf("failed to download file: %w", err)
	}
	defer body.Close()

	ref, err := s.tracker.MaterializeInbound(body, attachment.FileName)
	if err != nil {
		return domain.FileRef{}, err
	}
	return ref, nil
}

// handleText - Route text against the current step
func (s *BotService) handleText(ctx context.Context, session *domain.Session, text string) error {
	chatID := session.Key.ConversationID

	switch {
	case session.Step.IsCollecting():
		return s.handleCollectingText(ctx, session, text)

	case session.Step == domain.StepAwaitingSplitRanges:
		inv, err := s.splitInvocation(session, text)
		var userErr *domain.UserError
		if errors.As(err, &userErr) {
			return s.reply(ctx, chatID, "⚠️ "+userErr.Message)
		}
		if err != nil {
			return err
		}
		return s.invoke(ctx, inv)

	case session.Step == domain.StepIdle:
		return s.reply(ctx, chatID, idlePrompt+mainMenuText)

	case session.Step.IsMenu():
		return s.handleMenuText(ctx, session, text)

	default:
		logrus.Warnf("Session %s is in unexpected step %s, resetting", session.Key, session.Step)
		if _, err := s.sessions.Reset(session.Key); err != nil {
			return err
		}
		return s.reply(ctx, chatID, sessionCleared+mainMenuText)
	}
}

func (s *BotService) handleCollectingText(ctx context.Context, session *domain.Session, text string) error {
	chatID := session.Key.ConversationID

	if text == completionToken {
		if session.Step == domain.StepCollectingPDFs {
			return s.completeMerge(ctx, session)
		}
		return s.completeZip(ctx, session)
	}

	if abortTokens[text] {
		if _, err := s.sessions.Reset(session.Key); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
		return s.reply(ctx, chatID, collectCancelled+mainMenuText)
	}

	return s.reply(ctx, chatID, collectReminder)
}

// completeMerge - Validation failures keep the session collecting
func (s *BotService) completeMerge(ctx context.Context, session *domain.Session) error {
	chatID := session.Key.ConversationID
	files := session.CollectionSnapshot()

	if len(files) < 2 {
		return s.reply(ctx, chatID, "Need at least 2 PDFs. Keep sending or /cancel.")
	}
	for _, f := range files {
		if !domain.IsPDF(f.Path) {
			return s.reply(ctx, chatID, "All files must be PDF. /cancel and retry.")
		}
	}

	inv, err := s.mergeInvocation(session, files)
	if err != nil {
		return err
	}
	return s.invoke(ctx, inv)
}

func (s *BotService) completeZip(ctx context.Context, session *domain.Session) error {
	chatID := session.Key.ConversationID
	files := session.CollectionSnapshot()

	if len(files) == 0 && session.PrimaryFile != nil {
		files = []domain.FileRef{*session.PrimaryFile}
	}
	if len(files) == 0 {
		return s.reply(ctx, chatID, "Send files first.")
	}

	inv, err := s.zipInvocation(session, files)
	if err != nil {
		return err
	}
	return s.invoke(ctx, inv)
}

func (s *BotService) handleMenuText(ctx context.Context, session *domain.Session, text string) error {
	chatID := session.Key.ConversationID
	current := menus[session.Step]

	action, ok := current.options[text]
	if !ok {
		return s.reply(ctx, chatID, current.choose+current.text)
	}

	switch action.kind {
	case actionSubmenu, actionBack:
		if err := session.Transition(action.target); err != nil {
			return err
		}
		return s.reply(ctx, chatID, menuText(action.target))

	case actionCollect:
		if err := session.Transition(action.target); err != nil {
			return err
		}
		if action.target == domain.StepCollectingPDFs {
			return s.reply(ctx, chatID, collectPDFPrompt)
		}
		return s.reply(ctx, chatID, collectZipPrompt)

	case actionAskRanges:
		if session.PrimaryFile == nil || !domain.IsPDF(session.PrimaryFile.Path) {
			return s.reply(ctx, chatID, splitNeedsPDF)
		}
		if err := session.Transition(action.target); err != nil {
			return err
		}
		return s.reply(ctx, chatID, splitPrompt)

	case actionInvoke:
		inv, err := s.operationInvocation(session, action.op)
		var userErr *domain.UserError
		if errors.As(err, &userErr) {
			return s.reply(ctx, chatID, "⚠️ "+userErr.Message)
		}
		if err != nil {
			return err
		}
		return s.invoke(ctx, inv)
	}

	return s.reply(ctx, chatID, current.choose+current.text)
}

func (s *BotService) reply(ctx context.Context, chatID int64, text string) error {
	if err := s.messenger.SendText(ctx, chatID, text); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// humanError formats an error for the chat
func humanError(err error) string {
	msg := err.Error()
	if msg == "" {
		msg = fmt.Sprintf("%T", err)
	}
	return "❌ Error: " + msg
}
