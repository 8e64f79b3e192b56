package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zhouzirui/echo/backend/internal/analysis/crisis"
	"github.com/zhouzirui/echo/backend/internal/model/account"
	"github.com/zhouzirui/echo/backend/internal/model/chat"
	"github.com/zhouzirui/echo/backend/internal/service/memory"
	"github.com/zhouzirui/echo/backend/internal/service/reply"
)

var (
	ErrEmailRequired = errors.New("email is required")
	// ErrPersist is returned together with a valid reply when the exchange was
	// recorded in memory but could not be written to durable storage.
	ErrPersist = errors.New("conversation not persisted")
)

// Service runs one chat exchange: record the message, check it for crisis
// keywords, pick a reply, record the reply and persist.
type Service struct {
	memory   *memory.Store
	detector *crisis.Detector
	replies  *reply.Generator
	logger   *slog.Logger
}

// NewService wires the chat pipeline. nil detector/replies use the defaults.
func NewService(store *memory.Store, detector *crisis.Detector, replies *reply.Generator, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("chat: memory store is required")
	}
	if detector == nil {
		detector = crisis.Default()
	}
	if replies == nil {
		replies = reply.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{memory: store, detector: detector, replies: replies, logger: logger}, nil
}

// Send answers text on behalf of email. Empty text is answered like any other
// message. When persisting fails the reply is still returned, with ErrPersist.
func (s *Service) Send(ctx context.Context, email, text string) (chat.Reply, error) {
	email = account.NormalizeEmail(email)
	if email == "" {
		return chat.Reply{}, ErrEmailRequired
	}

	var isCrisis bool
	answer := s.memory.Exchange(email, text, func(history []string) string {
		isCrisis = s.detector.Detect(text)
		return s.replies.Reply(history, isCrisis)
	})

	if isCrisis {
		s.logger.WarnContext(ctx, "crisis keywords detected",
			"email", email,
			"keywords", s.detector.Matches(text),
		)
	}

	result := chat.Reply{Reply: answer, Crisis: isCrisis}
	if err := s.memory.Flush(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist conversation", "email", email, "error", err)
		return result, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return result, nil
}

// History returns the stored conversation for email.
func (s *Service) History(_ context.Context, email string) chat.Transcript {
	email = account.NormalizeEmail(email)
	messages := s.memory.Transcript(email)
	if messages == nil {
		messages = []string{}
	}
	return chat.Transcript{Email: email, Messages: messages}
}

// Flush persists all conversations, used on shutdown.
func (s *Service) Flush(ctx context.Context) error {
	return s.memory.Flush(ctx)
}
