package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"file-utility-bot/internal/domain"
	"file-utility-bot/internal/ports/output"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure Messenger implements the Messenger interface
var _ output.Messenger = (*Messenger)(nil)

// BotAPI is the subset of *tgbotapi.BotAPI the messenger uses
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Retry configuration constants
const (
	maxRetryAttempts  = 3
	initialDelay      = 500 * time.Millisecond
	maxDelay          = 5 * time.Second
	backoffMultiplier = 2
	downloadTimeout   = 5 * time.Minute
)

// Messenger struct - Output adapter for the Telegram Bot API
type Messenger struct {
	bot        BotAPI
	httpClient *http.Client
}

// NewMessenger func - Creates new Telegram messenger adapter
func NewMessenger(bot BotAPI) *Messenger {
	return &Messenger{
		bot: bot,
		httpClient: &http.Client{
			Timeout: downloadTimeout,
		},
	}
}

// SendText - Sends a plain text message
func (m *Messenger) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := m.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to %d: %w", chatID, err)
	}
	return nil
}

// SendFile - Uploads an artifact as a document under its suggested name
func (m *Messenger) SendFile(ctx context.Context, chatID int64, artifact domain.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(artifact.Path)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	name := artifact.Name
	if name == "" {
		name = "file"
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: name, Reader: f})
	doc.Caption = artifact.Caption

	if _, err := m.bot.Send(doc); err != nil {
		return fmt.Errorf("failed to send document %s to %d: %w", name, chatID, err)
	}

	logrus.Infof("Sent document %s to chat %d", name, chatID)
	return nil
}

// Download - Opens the content of a Telegram file, retrying transient failures
func (m *Messenger) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := m.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file %s: %w", fileID, err)
	}

	resp, err := m.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		return m.httpClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	return resp.Body, nil
}

// retryWithBackoff executes a request with exponential backoff retry logic
func (m *Messenger) retryWithBackoff(ctx context.Context, operation func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		resp, err := operation()

		if err != nil {
			if !isTransientError(err, 0) {
				return nil, err
			}
			lastErr = err
			logrus.Warnf("Telegram download attempt %d/%d failed with error: %v, retrying in %v", attempt, maxRetryAttempts, err, delay)
		} else {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}
			resp.Body.Close()

			// Don't retry on 4xx client errors
			if !isTransientError(nil, resp.StatusCode) {
				return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
			}
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			logrus.Warnf("Telegram download attempt %d/%d failed with status %d, retrying in %v", attempt, maxRetryAttempts, resp.StatusCode, delay)
		}

		if attempt < maxRetryAttempts {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}

			delay = delay * backoffMultiplier
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}

	return nil, fmt.Errorf("%v after %d attempts", lastErr, maxRetryAttempts)
}

// isTransientError determines if an error or status code should be retried
func isTransientError(err error, statusCode int) bool {
	if statusCode >= 500 && statusCode < 600 {
		return true
	}
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if statusCode != 0 {
		return false
	}

	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
