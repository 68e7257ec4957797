package application

import (
	"context"
	"errors"
	"fmt"

	"file-utility-bot/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Invocation describes one operation launched from a session
type Invocation struct {
	ID         string
	Key        domain.IdentityKey
	Generation uint64 // Session generation at launch
	Operation  domain.Operation
	Inputs     []string // Session files read by Run, leased until it returns
	Scratch    []string // Outputs of Run, discarded after delivery
	Run        Task

	// OnSuccess runs under the key lock after delivery when the session is
	// still the one that launched the invocation. Non-empty text is sent.
	OnSuccess func(session *domain.Session) (string, error)

	FailureHint string // Appended to transformation failures
	InputHint   string // Appended to user-correctable failures
	WorkingText string
}

func (s *BotService) newInvocation(session *domain.Session, op domain.Operation) *Invocation {
	return &Invocation{
		ID:          uuid.NewString(),
		Key:         session.Key,
		Generation:  session.Generation,
		Operation:   op,
		FailureHint: defaultHint,
		WorkingText: workingText,
	}
}

// invoke starts inv off the dispatch path. The caller holds the key lock.
func (s *BotService) invoke(ctx context.Context, inv *Invocation) error {
	chatID := inv.Key.ConversationID
	log := logrus.WithFields(logrus.Fields{
		"invocation": inv.ID,
		"operation":  inv.Operation.String(),
		"session":    inv.Key.String(),
	})

	release := s.tracker.Lease(inv.Inputs...)
	future, err := s.pool.Submit(inv.Run)
	if err != nil {
		release()
		s.tracker.Discard(inv.Scratch...)
		if errors.Is(err, domain.ErrQueueFull) {
			log.Warn("Worker queue is full, rejecting operation")
			return s.reply(ctx, chatID, busyText)
		}
		return fmt.Errorf("failed to start operation: %w", err)
	}

	log.Info("Operation submitted")
	s.markPending(inv.Key)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.complete(inv, future, release)
	}()

	// Completion waits for the key lock held here, so this arrives first
	if err := s.reply(ctx, chatID, inv.WorkingText); err != nil {
		log.Warnf("Failed to send working notice: %v", err)
	}
	return nil
}

// complete delivers the outcome of inv once its future resolves
func (s *BotService) complete(inv *Invocation, future *Future, release func()) {
	ctx := s.ctx
	chatID := inv.Key.ConversationID
	log := logrus.WithFields(logrus.Fields{
		"invocation": inv.ID,
		"operation":  inv.Operation.String(),
		"session":    inv.Key.String(),
	})

	result, runErr := future.Await(context.Background())
	release()
	defer s.tracker.Discard(inv.Scratch...)

	unlock := s.locks.Lock(inv.Key)
	defer unlock()
	defer s.donePending(inv.Key)

	session, err := s.sessions.GetOrCreate(inv.Key)
	if err != nil {
		log.Errorf("Failed to load session for completion: %v", err)
		return
	}
	if session.Generation != inv.Generation {
		log.Warnf("Discarding result of generation %d, session is now at generation %d", inv.Generation, session.Generation)
		return
	}

	if runErr != nil {
		s.reportFailure(ctx, inv, runErr)
		return
	}

	err = result.Match(
		func(message string) error {
			return s.reply(ctx, chatID, message)
		},
		func(artifact domain.Artifact) error {
			return s.messenger.SendFile(ctx, chatID, artifact)
		},
		func(artifacts []domain.Artifact) error {
			for _, artifact := range artifacts {
				if err := s.messenger.SendFile(ctx, chatID, artifact); err != nil {
					return err
				}
			}
			return nil
		},
	)
	if err != nil {
		log.Errorf("Failed to deliver result: %v", err)
		s.reportFailure(ctx, inv, err)
		return
	}
	log.Info("Operation delivered")

	if inv.OnSuccess == nil {
		return
	}
	followUp, err := inv.OnSuccess(session)
	if err != nil {
		log.Errorf("Failed to finish operation: %v", err)
		s.reportFailure(ctx, inv, err)
		return
	}
	if followUp != "" {
		if err := s.reply(ctx, chatID, followUp); err != nil {
			log.Errorf("Failed to send follow-up: %v", err)
		}
	}
}

// reportFailure tells the user what went wrong. Session state is left as is.
func (s *BotService) reportFailure(ctx context.Context, inv *Invocation, err error) {
	log := logrus.WithFields(logrus.Fields{
		"invocation": inv.ID,
		"operation":  inv.Operation.String(),
		"session":    inv.Key.String(),
	})

	var text string
	var userErr *domain.UserError
	if errors.As(err, &userErr) {
		log.Infof("Operation rejected input: %v", err)
		text = "⚠️ " + userErr.Message
		if inv.InputHint != "" {
			text += "\n" + inv.InputHint
		}
	} else {
		log.Errorf("Operation failed: %v", err)
		text = humanError(err) + "\n" + inv.FailureHint
	}

	if sendErr := s.reply(ctx, inv.Key.ConversationID, text); sendErr != nil {
		log.Errorf("Failed to report failure: %v", sendErr)
	}
}
