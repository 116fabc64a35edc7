// Package extractor turns call transcripts into financial profiles with a
// language model.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/factfind/internal/profile"
)

// LLM is a single-turn text completion backend.
type LLM interface {
	Generate(ctx context.Context, system, prompt string, maxTokens int) (string, error)
}

type Extractor struct {
	llm       LLM
	logger    *slog.Logger
	maxTokens int
	timeout   time.Duration
}

func New(llm LLM, logger *slog.Logger, maxTokens int, timeout time.Duration) *Extractor {
	return &Extractor{llm: llm, logger: logger, maxTokens: maxTokens, timeout: timeout}
}

// Extract formats the transcript, asks the model for a profile and validates
// the reply. The returned profile always carries userID.
func (e *Extractor) Extract(ctx context.Context, turns []Turn, userID, conversationID string) (*profile.FinancialProfile, error) {
	transcript := FormatTranscript(turns)
	system, prompt := BuildPrompts(transcript, userID)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	e.logger.Info("extracting profile from transcript",
		"conversation_id", conversationID,
		"user_id", userID,
		"turns", len(turns),
		"transcript_len", len(transcript),
	)

	start := time.Now()
	raw, err := e.llm.Generate(ctx, system, prompt, e.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	p, err := ParseProfile(raw)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			e.logger.Error("model reply is not JSON",
				"conversation_id", conversationID,
				"error", perr.Err,
				"reply", perr.Snippet,
			)
		}
		return nil, err
	}

	if p.UserID != userID {
		e.logger.Warn("model returned a different user_id, overriding",
			"conversation_id", conversationID,
			"expected", userID,
			"got", p.UserID,
		)
		p.UserID = userID
	}
	p.ID = userID

	e.logger.Info("extraction complete",
		"conversation_id", conversationID,
		"user_id", userID,
		"status", p.Status,
		"critical_fields", p.CriticalFields(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return p, nil
}
