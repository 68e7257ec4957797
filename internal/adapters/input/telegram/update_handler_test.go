package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"file-utility-bot/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MockBotService for testing
type MockBotService struct {
	mu            sync.Mutex
	HandleFunc    func(ctx context.Context, event domain.InboundEvent) error
	HandledEvents []domain.InboundEvent
}

func (m *MockBotService) HandleEvent(ctx context.Context, event domain.InboundEvent) error {
	m.mu.Lock()
	m.HandledEvents = append(m.HandledEvents, event)
	m.mu.Unlock()
	if m.HandleFunc != nil {
		return m.HandleFunc(ctx, event)
	}
	return nil
}

func (m *MockBotService) Events() []domain.InboundEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]domain.InboundEvent, len(m.HandledEvents))
	copy(events, m.HandledEvents)
	return events
}

// MockUpdateSource for testing
type MockUpdateSource struct {
	Updates     chan tgbotapi.Update
	StopCalled  bool
	PollTimeout int
}

func (m *MockUpdateSource) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	m.PollTimeout = config.Timeout
	return m.Updates
}

func (m *MockUpdateSource) StopReceivingUpdates() {
	m.StopCalled = true
}

func textUpdate(chatID, fromID int64, messageID int, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: messageID,
			Chat:      &tgbotapi.Chat{ID: chatID},
			From:      &tgbotapi.User{ID: fromID},
			Text:      text,
		},
	}
}

func TestToEvent_Text(t *testing.T) {
	// Arrange
	update := textUpdate(10, 20, 1, "hello")

	// Act
	event, ok := ToEvent(update)

	// Assert
	if !ok {
		t.Fatal("Expected update to convert")
	}
	if event.Key != domain.NewIdentityKey(10, 20) {
		t.Errorf("Expected key 10:20, got %s", event.Key)
	}
	if event.Text != "hello" || event.HasFile() {
		t.Errorf("Expected text event, got %+v", event)
	}
}

func TestToEvent_NilSenderUsesChat(t *testing.T) {
	// Arrange
	update := tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 3,
		Chat:      &tgbotapi.Chat{ID: -100},
		Text:      "hi",
	}}

	// Act
	event, ok := ToEvent(update)

	// Assert
	if !ok {
		t.Fatal("Expected update to convert")
	}
	if event.Key.SenderID != -100 {
		t.Errorf("Expected sender to fall back to chat id, got %d", event.Key.SenderID)
	}
}

func TestToEvent_Attachments(t *testing.T) {
	tests := []struct {
		name     string
		message  *tgbotapi.Message
		fileID   string
		fileName string
	}{
		{
			name:     "document keeps its name",
			message:  &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", FileName: "report.pdf"}},
			fileID:   "doc",
			fileName: "report.pdf",
		},
		{
			name: "largest photo",
			message: &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{
				{FileID: "small", Width: 90},
				{FileID: "large", Width: 1280},
			}},
			fileID:   "large",
			fileName: "photo_7.jpg",
		},
		{
			name:     "audio without name",
			message:  &tgbotapi.Message{Audio: &tgbotapi.Audio{FileID: "aud"}},
			fileID:   "aud",
			fileName: "audio_7.mp3",
		},
		{
			name:     "video with name",
			message:  &tgbotapi.Message{Video: &tgbotapi.Video{FileID: "vid", FileName: "clip.mov"}},
			fileID:   "vid",
			fileName: "clip.mov",
		},
		{
			name:     "voice note",
			message:  &tgbotapi.Message{Voice: &tgbotapi.Voice{FileID: "voc"}},
			fileID:   "voc",
			fileName: "voice_7.ogg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			tt.message.MessageID = 7
			tt.message.Chat = &tgbotapi.Chat{ID: 1}

			// Act
			event, ok := ToEvent(tgbotapi.Update{Message: tt.message})

			// Assert
			if !ok || event.Attachment == nil {
				t.Fatalf("Expected file event, got %+v", event)
			}
			if event.Attachment.FileID != tt.fileID {
				t.Errorf("Expected file id %s, got %s", tt.fileID, event.Attachment.FileID)
			}
			if event.Attachment.FileName != tt.fileName {
				t.Errorf("Expected file name %s, got %s", tt.fileName, event.Attachment.FileName)
			}
		})
	}
}

func TestToEvent_Skipped(t *testing.T) {
	tests := []struct {
		name   string
		update tgbotapi.Update
	}{
		{name: "no message", update: tgbotapi.Update{}},
		{name: "sticker only", update: tgbotapi.Update{Message: &tgbotapi.Message{
			Chat:    &tgbotapi.Chat{ID: 1},
			Sticker: &tgbotapi.Sticker{FileID: "st"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			_, ok := ToEvent(tt.update)

			// Assert
			if ok {
				t.Error("Expected update to be skipped")
			}
		})
	}
}

func TestDispatch_KeepsPerKeyOrder(t *testing.T) {
	// Arrange
	var mu sync.Mutex
	seen := make(map[domain.IdentityKey][]int)
	srv := &MockBotService{
		HandleFunc: func(ctx context.Context, event domain.InboundEvent) error {
			time.Sleep(time.Millisecond)
			mu.Lock()
			seen[event.Key] = append(seen[event.Key], event.MessageID)
			mu.Unlock()
			return nil
		},
	}
	handler := NewUpdateHandler(&MockUpdateSource{}, srv, 0)
	keyA := domain.NewIdentityKey(1, 1)
	keyB := domain.NewIdentityKey(2, 2)

	// Act
	for i := 1; i <= 5; i++ {
		handler.Dispatch(context.Background(), domain.InboundEvent{Key: keyA, MessageID: i})
		handler.Dispatch(context.Background(), domain.InboundEvent{Key: keyB, MessageID: i})
	}
	handler.Wait()

	// Assert
	for _, key := range []domain.IdentityKey{keyA, keyB} {
		ids := seen[key]
		if len(ids) != 5 {
			t.Fatalf("Expected 5 events for %s, got %d", key, len(ids))
		}
		for i, id := range ids {
			if id != i+1 {
				t.Errorf("Expected events of %s in order, got %v", key, ids)
				break
			}
		}
	}
}

func TestDispatch_SurvivesPanicsAndErrors(t *testing.T) {
	// Arrange
	srv := &MockBotService{
		HandleFunc: func(ctx context.Context, event domain.InboundEvent) error {
			switch event.MessageID {
			case 1:
				panic("boom")
			case 2:
				return errors.New("failed")
			}
			return nil
		},
	}
	handler := NewUpdateHandler(&MockUpdateSource{}, srv, 0)
	key := domain.NewIdentityKey(1, 1)

	// Act
	for i := 1; i <= 3; i++ {
		handler.Dispatch(context.Background(), domain.InboundEvent{Key: key, MessageID: i})
	}
	handler.Wait()

	// Assert
	if got := len(srv.Events()); got != 3 {
		t.Errorf("Expected 3 handled events, got %d", got)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	// Arrange
	source := &MockUpdateSource{Updates: make(chan tgbotapi.Update, 1)}
	srv := &MockBotService{}
	handler := NewUpdateHandler(source, srv, 30)
	ctx, cancel := context.WithCancel(context.Background())
	source.Updates <- textUpdate(1, 1, 1, "/start")

	done := make(chan struct{})
	go func() {
		handler.Run(ctx)
		close(done)
	}()

	// Act
	deadline := time.Now().Add(2 * time.Second)
	for len(srv.Events()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	// Assert
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected Run to return after cancel")
	}
	if !source.StopCalled {
		t.Error("Expected polling to be stopped")
	}
	if source.PollTimeout != 30 {
		t.Errorf("Expected poll timeout 30, got %d", source.PollTimeout)
	}
	if len(srv.Events()) != 1 {
		t.Errorf("Expected 1 handled event, got %d", len(srv.Events()))
	}
}
