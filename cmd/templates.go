package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/elit-parking/campaign-cli/internal/resilience"
	"github.com/elit-parking/campaign-cli/internal/templates"
)

type templateView struct {
	templates.Template `yaml:",inline"`
	TrackingURL        string                  `json:"tracking_url" yaml:"tracking_url"`
	Valid              bool                    `json:"valid" yaml:"valid"`
	Verification       *templates.Verification `json:"verification,omitempty" yaml:"verification,omitempty"`
}

type templatesReport struct {
	Campaign  string         `json:"campaign" yaml:"campaign"`
	PromoCode string         `json:"promo_code" yaml:"promo_code"`
	Templates []templateView `json:"templates" yaml:"templates"`
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Show configured message templates and tracking URLs",
	Long: `Print the campaign's content templates with their tracking URLs and SID
validation. With --verify each template is also looked up in the Twilio
Content API.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		verify, _ := cmd.Flags().GetBool("verify")

		var fetcher templates.ContentFetcher
		if verify {
			if err := cfg.Validate("verify"); err != nil {
				return err
			}
			fetcher = newTwilioClient(cfg.Twilio)
		}
		return runTemplates(cmd.Context(), cmd.OutOrStdout(), format, fetcher)
	},
}

func init() {
	templatesCmd.Flags().String("format", "yaml", "output format: yaml or json")
	templatesCmd.Flags().Bool("verify", false, "look templates up in the Twilio Content API")
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(ctx context.Context, out io.Writer, format string, fetcher templates.ContentFetcher) error {
	registry := templates.NewRegistry(cfg.Campaign)
	valid := registry.Validate()

	verified := map[string]templates.Verification{}
	if fetcher != nil {
		for _, v := range registry.Verify(ctx, fetcher, resilience.BackoffConfig(cfg.Dispatch.MaxAttempts)) {
			verified[v.Label] = v
		}
	}

	report := templatesReport{
		Campaign:  registry.Campaign(),
		PromoCode: registry.PromoCode(),
	}
	for _, label := range registry.Labels() {
		t, _ := registry.Get(label)
		u, _ := registry.TrackingURL(label)
		view := templateView{Template: t, TrackingURL: u, Valid: valid[label]}
		if v, ok := verified[label]; ok {
			view.Verification = &v
		}
		report.Templates = append(report.Templates, view)
	}

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "templates: encode json")
		}
	case "yaml", "":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "templates: encode yaml")
		}
		if err := enc.Close(); err != nil {
			return eris.Wrap(err, "templates: encode yaml")
		}
	default:
		return eris.Errorf("templates: unknown format %q (want yaml or json)", format)
	}
	return nil
}
