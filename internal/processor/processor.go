// Package processor runs the post-call pipeline: store the conversation,
// extract a profile, store it, and fan out events and notifications.
package processor

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/factfind/internal/elevenlabs"
	"github.com/MikeSquared-Agency/factfind/internal/extractor"
	"github.com/MikeSquared-Agency/factfind/internal/hermes"
	"github.com/MikeSquared-Agency/factfind/internal/profile"
)

type Store interface {
	SaveConversation(ctx context.Context, conversationID string, data json.RawMessage) error
	SaveProfile(ctx context.Context, p *profile.FinancialProfile) error
}

type Extractor interface {
	Extract(ctx context.Context, turns []extractor.Turn, userID, conversationID string) (*profile.FinancialProfile, error)
}

type Publisher interface {
	PublishEvent(subject string, data any) error
}

type Notifier interface {
	PostProfileSummary(ctx context.Context, fp *profile.FinancialProfile, conversationID, callSummary string) (string, error)
}

type Step string

const (
	StepStoreConversation   Step = "store_conversation"
	StepPublishConversation Step = "publish_conversation"
	StepExtractProfile      Step = "extract_profile"
	StepStoreProfile        Step = "store_profile"
	StepPublishProfile      Step = "publish_profile"
	StepNotify              Step = "notify"
)

// Outcome records what happened to one best-effort step. A skipped step was
// not attempted, either because it is not configured or because an earlier
// step produced nothing for it to work on.
type Outcome struct {
	Step    Step
	OK      bool
	Skipped bool
	Reason  string
	Err     error
}

// Result describes one handled webhook.
type Result struct {
	EventType      string
	ConversationID string
	UserID         string
	Profile        *profile.FinancialProfile
	Outcomes       []Outcome
}

// Outcome returns the recorded outcome for step, if any.
func (r Result) Outcome(step Step) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Step == step {
			return o, true
		}
	}
	return Outcome{}, false
}

// Processor orchestrates webhook ingestion. Any dependency except the logger
// may be nil, in which case its steps are skipped.
type Processor struct {
	store     Store
	extractor Extractor
	publisher Publisher
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

func New(s Store, ext Extractor, pub Publisher, n Notifier, logger *slog.Logger) *Processor {
	return &Processor{
		store:     s,
		extractor: ext,
		publisher: pub,
		notifier:  n,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleWebhook processes one webhook body. The only error returned is an
// invalid envelope (wrapping elevenlabs.ErrInvalidPayload); failures in the
// pipeline are reported through Result.Outcomes and never fail the call.
func (p *Processor) HandleWebhook(ctx context.Context, body []byte) (Result, error) {
	ev, err := elevenlabs.ParseEvent(body)
	if err != nil {
		p.logger.Error("invalid webhook payload", "error", err)
		return Result{}, err
	}

	call, ok := ev.(*elevenlabs.PostCallTranscription)
	if !ok {
		p.logger.Info("ignoring webhook event", "type", ev.EventType())
		return Result{EventType: ev.EventType()}, nil
	}

	// The pipeline outlives the inbound request so a dropped connection
	// cannot leave a conversation half-processed.
	ctx = context.WithoutCancel(ctx)

	data := call.Data
	userID := data.UserID
	if userID == "" {
		userID = data.ConversationID
	}
	res := Result{
		EventType:      ev.EventType(),
		ConversationID: data.ConversationID,
		UserID:         userID,
	}
	log := p.logger.With("conversation_id", data.ConversationID, "user_id", userID)

	log.Info("post-call transcription received",
		"agent_id", data.AgentID,
		"status", data.Status,
		"turns", len(data.Transcript),
	)

	record := func(o Outcome) {
		res.Outcomes = append(res.Outcomes, o)
		switch {
		case o.Err != nil:
			log.Error("pipeline step failed", "step", o.Step, "error", o.Err)
		case o.Skipped:
			log.Warn("pipeline step skipped", "step", o.Step, "reason", o.Reason)
		default:
			log.Info("pipeline step done", "step", o.Step)
		}
	}

	stored := p.storeConversation(ctx, call, record)
	if stored {
		p.publish(hermes.SubjectConversationStored, StepPublishConversation, hermes.ConversationStored{
			ConversationID: data.ConversationID,
			UserID:         userID,
			AgentID:        data.AgentID,
			Status:         data.Status,
			Turns:          len(data.Transcript),
		}, record)
	}

	fp := p.extract(ctx, data, userID, record)
	if fp == nil {
		return res, nil
	}
	res.Profile = fp

	if !p.storeProfile(ctx, fp, record) {
		return res, nil
	}

	p.publish(hermes.SubjectProfileExtracted, StepPublishProfile, hermes.ProfileExtracted{
		UserID:         fp.UserID,
		ConversationID: data.ConversationID,
		Status:         string(fp.Status),
		CriticalFields: fp.CriticalFields(),
	}, record)

	p.notify(ctx, fp, data, record)
	return res, nil
}

func (p *Processor) storeConversation(ctx context.Context, call *elevenlabs.PostCallTranscription, record func(Outcome)) bool {
	if p.store == nil {
		record(Outcome{Step: StepStoreConversation, Skipped: true, Reason: "no store configured"})
		return false
	}
	if err := p.store.SaveConversation(ctx, call.Data.ConversationID, call.Raw); err != nil {
		record(Outcome{Step: StepStoreConversation, Err: err})
		return false
	}
	record(Outcome{Step: StepStoreConversation, OK: true})
	return true
}

func (p *Processor) extract(ctx context.Context, data elevenlabs.TranscriptionData, userID string, record func(Outcome)) *profile.FinancialProfile {
	if len(data.Transcript) == 0 {
		record(Outcome{Step: StepExtractProfile, Skipped: true, Reason: "empty transcript"})
		return nil
	}
	if p.extractor == nil {
		record(Outcome{Step: StepExtractProfile, Skipped: true, Reason: "no extractor configured"})
		return nil
	}

	turns := make([]extractor.Turn, len(data.Transcript))
	for i, t := range data.Transcript {
		turns[i] = extractor.Turn{Role: t.Role, Message: t.Message}
	}

	fp, err := p.extractor.Extract(ctx, turns, userID, data.ConversationID)
	if err != nil {
		record(Outcome{Step: StepExtractProfile, Err: err})
		return nil
	}
	record(Outcome{Step: StepExtractProfile, OK: true})
	return fp
}

func (p *Processor) storeProfile(ctx context.Context, fp *profile.FinancialProfile, record func(Outcome)) bool {
	if p.store == nil {
		record(Outcome{Step: StepStoreProfile, Skipped: true, Reason: "no store configured"})
		return false
	}
	// An extracted profile replaces the stored one whole.
	now := p.now().UTC()
	fp.CreatedAt = nil
	fp.Stamp(now)
	if err := p.store.SaveProfile(ctx, fp); err != nil {
		record(Outcome{Step: StepStoreProfile, Err: err})
		return false
	}
	record(Outcome{Step: StepStoreProfile, OK: true})
	return true
}

func (p *Processor) publish(subject string, step Step, data any, record func(Outcome)) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishEvent(subject, data); err != nil {
		record(Outcome{Step: step, Err: err})
		return
	}
	record(Outcome{Step: step, OK: true})
}

func (p *Processor) notify(ctx context.Context, fp *profile.FinancialProfile, data elevenlabs.TranscriptionData, record func(Outcome)) {
	if p.notifier == nil {
		return
	}
	if _, err := p.notifier.PostProfileSummary(ctx, fp, data.ConversationID, data.Analysis.TranscriptSummary); err != nil {
		record(Outcome{Step: StepNotify, Err: err})
		return
	}
	record(Outcome{Step: StepNotify, OK: true})
}
