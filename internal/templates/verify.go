package templates

import (
	"context"

	"go.uber.org/zap"

	"github.com/elit-parking/campaign-cli/internal/resilience"
	"github.com/elit-parking/campaign-cli/pkg/twilio"
)

// ContentFetcher looks up a content template by SID.
type ContentFetcher interface {
	FetchContent(ctx context.Context, contentSID string) (*twilio.Content, error)
}

// Verification is the remote check of one configured template.
type Verification struct {
	Label        string `json:"label" yaml:"label"`
	SID          string `json:"sid" yaml:"sid"`
	FriendlyName string `json:"friendly_name,omitempty" yaml:"friendly_name,omitempty"`
	Language     string `json:"language,omitempty" yaml:"language,omitempty"`
	NameMatches  bool   `json:"name_matches" yaml:"name_matches"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the template exists remotely.
func (v Verification) OK() bool { return v.Error == "" }

// Verify fetches every configured template from the Content API, retrying
// transient failures. Templates with a malformed SID are reported without a
// request.
func (r *Registry) Verify(ctx context.Context, f ContentFetcher, retry resilience.RetryConfig) []Verification {
	out := make([]Verification, 0, len(r.templates))
	for _, label := range r.Labels() {
		t := r.templates[label]
		v := Verification{Label: label, SID: t.SID}

		if !ValidSID(t.SID) {
			v.Error = "invalid sid"
			out = append(out, v)
			continue
		}

		cfg := retry
		cfg.ShouldRetry = resilience.IsTransient
		cfg.OnRetry = resilience.RetryLogger("templates.verify", zap.String("label", label))
		content, _, err := resilience.DoVal(ctx, cfg, func(ctx context.Context, _ int) (*twilio.Content, error) {
			return f.FetchContent(ctx, t.SID)
		})
		if err != nil {
			v.Error = err.Error()
			zap.L().Warn("templates: verification failed",
				zap.String("label", label),
				zap.String("sid", t.SID),
				zap.Error(err),
			)
			out = append(out, v)
			continue
		}

		v.FriendlyName = content.FriendlyName
		v.Language = content.Language
		v.NameMatches = content.FriendlyName == t.Name
		out = append(out, v)
	}
	return out
}
