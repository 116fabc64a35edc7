// Package slack posts extracted profile summaries to an advisers' channel.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/factfind/internal/profile"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostProfileSummary posts the headline facts of a freshly extracted profile.
// When the call has a summary it is added as a thread reply. Returns the
// message timestamp.
func (p *Poster) PostProfileSummary(ctx context.Context, fp *profile.FinancialProfile, conversationID, callSummary string) (string, error) {
	text := formatProfileMessage(fp, conversationID)

	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": fmt.Sprintf("Conversation `%s`", conversationID),
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	p.logger.Info("posted profile summary to slack", "ts", ts, "user_id", fp.UserID, "conversation_id", conversationID)

	if callSummary != "" {
		if err := p.PostThread(ctx, ts, "*Call summary:* "+callSummary); err != nil {
			p.logger.Warn("failed to post call summary thread", "ts", ts, "error", err)
		}
	}
	return ts, nil
}

// PostThread posts a threaded reply to a message.
func (p *Poster) PostThread(ctx context.Context, threadTS, text string) error {
	_, err := p.post(ctx, map[string]any{
		"channel":   p.channel,
		"thread_ts": threadTS,
		"text":      text,
	})
	return err
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatProfileMessage(fp *profile.FinancialProfile, conversationID string) string {
	var sb strings.Builder

	name := fp.DisplayName()
	if name == "" {
		name = "Unnamed client"
	}
	fmt.Fprintf(&sb, "*New fact-find:* %s (`%s`)\n", name, fp.UserID)
	fmt.Fprintf(&sb, "*Status:* %s | %d/%d critical fields\n", fp.Status, fp.CriticalFields(), profile.CriticalFieldTotal)

	if e := fp.Employment; e != nil {
		if e.EmploymentStatus != nil {
			fmt.Fprintf(&sb, "*Employment:* %s\n", *e.EmploymentStatus)
		}
		if e.TotalAnnualIncome != nil {
			fmt.Fprintf(&sb, "*Annual income:* %s\n", pounds(*e.TotalAnnualIncome))
		}
	}
	if fpos := fp.FinancialPosition; fpos != nil && fpos.NetWorth != nil {
		fmt.Fprintf(&sb, "*Net worth:* %s\n", pounds(*fpos.NetWorth))
	}
	if r := fp.RiskProfile; r != nil && r.RiskAttitude != nil {
		fmt.Fprintf(&sb, "*Risk attitude:* %s\n", strings.ReplaceAll(string(*r.RiskAttitude), "_", " "))
	}
	if g := fp.GoalsAndObjectives; g != nil && len(g.PrimaryGoals) > 0 {
		fmt.Fprintf(&sb, "*Goals (%d):*\n", len(g.PrimaryGoals))
		for i, goal := range g.PrimaryGoals {
			fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, goal.GoalType, goal.Description)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// pounds formats an amount as £1,234 (pence dropped).
func pounds(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := fmt.Sprintf("%.0f", v)
	var sb strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	if neg {
		return "-£" + sb.String()
	}
	return "£" + sb.String()
}
