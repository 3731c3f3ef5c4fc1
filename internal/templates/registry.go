// Package templates holds the campaign's approved WhatsApp content templates
// keyed by test group label.
package templates

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/elit-parking/campaign-cli/internal/config"
)

// ErrUnknownTemplate is returned for a label with no configured template.
var ErrUnknownTemplate = eris.New("templates: unknown template")

// sidPrefix starts every Twilio content template SID.
const sidPrefix = "HX"

// Template is one content template and its tracking tag.
type Template struct {
	Label      string `json:"label" yaml:"label"`
	SID        string `json:"sid" yaml:"sid"`
	Name       string `json:"name" yaml:"name"`
	UTMContent string `json:"utm_content" yaml:"utm_content"`
	Focus      string `json:"focus" yaml:"focus"`
}

// Registry resolves group labels to templates.
type Registry struct {
	campaign  string
	baseURL   string
	promoCode string
	templates map[string]Template
}

// NewRegistry builds a registry from the campaign config. Labels are
// upper-cased.
func NewRegistry(cfg config.CampaignConfig) *Registry {
	r := &Registry{
		campaign:  cfg.Name,
		baseURL:   cfg.URL,
		promoCode: cfg.PromoCode,
		templates: make(map[string]Template, len(cfg.Templates)),
	}
	for label, tc := range cfg.Templates {
		label = strings.ToUpper(label)
		r.templates[label] = Template{
			Label:      label,
			SID:        strings.TrimSpace(tc.SID),
			Name:       tc.Name,
			UTMContent: tc.UTMContent,
			Focus:      tc.Focus,
		}
	}
	return r
}

// Campaign returns the campaign name.
func (r *Registry) Campaign() string { return r.campaign }

// PromoCode returns the campaign promo code.
func (r *Registry) PromoCode() string { return r.promoCode }

// Labels returns the configured labels, sorted.
func (r *Registry) Labels() []string {
	labels := make([]string, 0, len(r.templates))
	for l := range r.templates {
		labels = append(labels, l)
	}
	slices.Sort(labels)
	return labels
}

// Get returns the template for label, case-insensitively.
func (r *Registry) Get(label string) (Template, error) {
	t, ok := r.templates[strings.ToUpper(label)]
	if !ok {
		return Template{}, eris.Wrapf(ErrUnknownTemplate, "templates: get %q", label)
	}
	return t, nil
}

// TrackingURL returns the campaign URL tagged with UTM parameters for the
// template's group.
func (r *Registry) TrackingURL(label string) (string, error) {
	t, err := r.Get(label)
	if err != nil {
		return "", err
	}
	sep := "?"
	if strings.Contains(r.baseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sutm_source=whatsapp&utm_campaign=%s&utm_content=%s",
		r.baseURL, sep, url.QueryEscape(r.campaign), url.QueryEscape(t.UTMContent)), nil
}

// Validate reports, per label, whether the template has a well-formed SID.
func (r *Registry) Validate() map[string]bool {
	out := make(map[string]bool, len(r.templates))
	for l, t := range r.templates {
		out[l] = ValidSID(t.SID)
	}
	return out
}

// Require returns an error naming every label among labels whose template is
// missing or has a malformed SID.
func (r *Registry) Require(labels ...string) error {
	var bad []string
	for _, l := range labels {
		t, err := r.Get(l)
		if err != nil {
			bad = append(bad, fmt.Sprintf("%s (not configured)", strings.ToUpper(l)))
			continue
		}
		if !ValidSID(t.SID) {
			bad = append(bad, fmt.Sprintf("%s (invalid sid %q)", t.Label, t.SID))
		}
	}
	if len(bad) > 0 {
		return eris.Errorf("templates: invalid templates: %s", strings.Join(bad, ", "))
	}
	return nil
}

// ValidSID reports whether sid looks like a content template SID.
func ValidSID(sid string) bool {
	return len(sid) > len(sidPrefix) && strings.HasPrefix(sid, sidPrefix)
}
