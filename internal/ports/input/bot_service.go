package input

import (
	"context"

	"file-utility-bot/internal/domain"
)

// BotService interface - Input port (use case)
// Defines what the application can do with inbound chat events
type BotService interface {
	// HandleEvent routes one event against the sender's session.
	// Events for the same identity key must be delivered in order.
	HandleEvent(ctx context.Context, event domain.InboundEvent) error
}
