package application

import (
	"context"
	"fmt"
	"time"

	"file-utility-bot/internal/domain"

	"github.com/sirupsen/logrus"
)

// handleBroadcast - Owner-only: send payload to every registered user
func (s *BotService) handleBroadcast(ctx context.Context, event domain.InboundEvent, payload string) error {
	chatID := event.Key.ConversationID

	if s.cfg.OwnerID == 0 || event.Key.SenderID != s.cfg.OwnerID {
		logrus.Warnf("Rejected broadcast from non-owner %d", event.Key.SenderID)
		return s.reply(ctx, chatID, "❌ Only the bot owner can use this command.")
	}
	if payload == "" {
		return s.reply(ctx, chatID, "⚠️ Usage: /broadcast <message>")
	}

	report, err := s.Broadcast(ctx, payload)
	if err != nil {
		return err
	}
	return s.reply(ctx, chatID, fmt.Sprintf("✅ Broadcast done.\n📨 Sent: %d\n❌ Failed: %d", report.Sent, report.Failed))
}

// Broadcast sends text to every registered user one by one, pausing between
// recipients. A failed recipient is counted and skipped.
func (s *BotService) Broadcast(ctx context.Context, text string) (domain.BroadcastReport, error) {
	var report domain.BroadcastReport

	ids, err := s.registry.ListAll(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list users: %w", err)
	}
	logrus.Infof("Broadcasting to %d users", len(ids))

	for i, id := range ids {
		if i > 0 {
			if err := sleepContext(ctx, s.cfg.BroadcastDelay); err != nil {
				report.Failed += len(ids) - i
				logrus.Warnf("Broadcast interrupted: %v", err)
				break
			}
		}
		if err := s.messenger.SendText(ctx, id, text); err != nil {
			logrus.Warnf("Broadcast to %d failed: %v", id, err)
			report.Failed++
			continue
		}
		report.Sent++
	}

	logrus.Infof("Broadcast finished: sent=%d failed=%d", report.Sent, report.Failed)
	return report, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
