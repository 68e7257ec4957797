package output

import (
	"context"
	"io"

	"file-utility-bot/internal/domain"
)

// Messenger interface - Output port
// Defines what the application needs from the messaging platform
type Messenger interface {
	// SendText sends a text message to a conversation
	SendText(ctx context.Context, chatID int64, text string) error

	// SendFile uploads an artifact as a document with its caption
	SendFile(ctx context.Context, chatID int64, artifact domain.Artifact) error

	// Download opens the content behind a transport file handle
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
}
