package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elit-parking/campaign-cli/internal/contactio"
	"github.com/elit-parking/campaign-cli/internal/cost"
	"github.com/elit-parking/campaign-cli/internal/dispatch"
	"github.com/elit-parking/campaign-cli/internal/model"
	"github.com/elit-parking/campaign-cli/internal/monitoring"
	"github.com/elit-parking/campaign-cli/internal/resilience"
	"github.com/elit-parking/campaign-cli/internal/split"
	"github.com/elit-parking/campaign-cli/internal/templates"
)

const confirmWord = "YES"

type sendOptions struct {
	input     string
	group     string
	test      bool
	limit     int
	yes       bool
	outputDir string
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send the campaign templates to prepared contacts",
	Long: `Send each test group its WhatsApp content template through Twilio.

Reads the given prepared file, or the newest prepared_contacts file in the
output directory. Outside test mode the run must be confirmed by typing YES
unless --yes is set. Results are written to a timestamped campaign_results
JSON file.

Examples:
  # Send 5 messages per group as a smoke test
  send --test

  # Send group B only, without the confirmation prompt
  send --group B --yes`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		f := cmd.Flags()
		opts := sendOptions{}
		opts.input, _ = f.GetString("input")
		opts.group, _ = f.GetString("group")
		opts.test, _ = f.GetBool("test")
		opts.limit, _ = f.GetInt("limit")
		opts.yes, _ = f.GetBool("yes")
		opts.outputDir, _ = f.GetString("output-dir")

		sender := dispatch.NewTwilioSender(newTwilioClient(cfg.Twilio))
		return runSend(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), sender, opts, time.Now)
	},
}

func init() {
	f := sendCmd.Flags()
	f.String("input", "", "prepared contacts CSV (default: newest in output dir)")
	f.String("group", "ALL", "group to send: a configured label or ALL")
	f.Bool("test", false, "test mode: send at most --limit messages per group")
	f.Int("limit", -1, "messages per group in test mode (default: dispatch.test_limit)")
	f.Bool("yes", false, "skip the confirmation prompt")
	f.String("output-dir", "", "directory for prepared files and results (default: output.dir)")
	rootCmd.AddCommand(sendCmd)
}

func runSend(ctx context.Context, in io.Reader, out io.Writer, sender dispatch.Sender, opts sendOptions, now func() time.Time) error {
	if err := cfg.Validate("send"); err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "send"))

	groups := cfg.Split.Groups
	if g := strings.ToUpper(strings.TrimSpace(opts.group)); g != "" && g != "ALL" {
		groups = []string{g}
	}

	registry := templates.NewRegistry(cfg.Campaign)
	if err := registry.Require(groups...); err != nil {
		return eris.Wrap(err, "send: check templates")
	}

	dir := outputDir(opts.outputDir)
	path := opts.input
	if path == "" {
		latest, err := contactio.LatestPrepared(dir)
		if err != nil {
			return eris.Wrap(err, "send: find prepared contacts")
		}
		path = latest
	}

	contacts, err := contactio.ReadPrepared(path)
	if err != nil {
		return eris.Wrap(err, "send: read prepared contacts")
	}
	log.Info("prepared contacts loaded", zap.String("path", path), zap.Int("contacts", len(contacts)))

	limit := opts.limit
	if limit < 0 {
		limit = cfg.Dispatch.TestLimit
	}

	batches := make(map[string][]model.CleanContact, len(groups))
	counts := make(map[string]int, len(groups))
	for _, g := range groups {
		gc, err := split.Extract(contacts, g)
		if err != nil {
			if eris.Is(err, split.ErrGroupNotFound) {
				log.Warn("group has no contacts, skipping", zap.String("group", g))
				continue
			}
			return err
		}
		batches[g] = gc
		counts[g] = len(gc)
		if opts.test && len(gc) > limit {
			counts[g] = limit
		}
	}
	if len(batches) == 0 {
		return eris.Errorf("send: no contacts in groups %s", strings.Join(groups, ", "))
	}

	calc := cost.NewCalculator(cost.RatesFromConfig(cfg.Pricing))
	est := calc.Estimate(counts)
	mode := "PRODUCTION"
	if opts.test {
		mode = fmt.Sprintf("TEST (%d per group)", limit)
	}
	fmt.Fprintf(out, "Campaign %s, %s\n", registry.Campaign(), mode)
	for _, gc := range est.Groups {
		tmpl, _ := registry.Get(gc.Group)
		fmt.Fprintf(out, "  group %s: %d messages, template %s (%s)\n", gc.Group, gc.Messages, tmpl.Name, tmpl.SID)
	}
	fmt.Fprintf(out, "Estimated cost: %.2f %s\n", est.Total, est.Currency)

	if !opts.test && !opts.yes && !confirm(in, out) {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	engine := dispatch.New(sender, cfg.Twilio.WhatsAppNumber,
		dispatch.WithRateLimit(cfg.Dispatch.RateLimit),
		dispatch.WithMaxAttempts(cfg.Dispatch.MaxAttempts),
		dispatch.WithClassifier(resilience.NewClassifier(cfg.Dispatch.RetryableCodes)),
		dispatch.WithProgressEvery(cfg.Dispatch.ProgressEvery),
	)

	results := contactio.NewResults(registry.Campaign(), opts.test, now())
	for _, g := range groups {
		gc, ok := batches[g]
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			log.Warn("send interrupted", zap.String("next_group", g))
			break
		}

		tmpl, _ := registry.Get(g)
		url, _ := registry.TrackingURL(g)
		log.Info("sending group",
			zap.String("group", g),
			zap.String("template", tmpl.Name),
			zap.String("tracking_url", url),
			zap.Int("contacts", len(gc)),
		)

		summary := engine.SendBatch(ctx, gc, tmpl.SID, dispatch.BatchOptions{TestMode: opts.test, TestLimit: limit})
		results.Add(g, summary)

		fmt.Fprintf(out, "Group %s: %d attempted, %.1f%% success, %.1f msg/s\n",
			g, summary.TotalAttempted, summary.SuccessRate, summary.MessagesPerSecond)
	}

	stats := engine.Stats()
	fmt.Fprintf(out, "Total: %d sent, %d failed\n", stats.Sent, stats.Failed)

	resultsPath, err := contactio.WriteResults(dir, results, now())
	if err != nil {
		return eris.Wrap(err, "send: write results")
	}
	fmt.Fprintf(out, "Results: %s\n", resultsPath)

	snap := monitoring.Collect(results.Groups, calc)
	alerter := monitoring.NewAlerter(cfg.Monitoring)
	if alerts := alerter.Evaluate(registry.Campaign(), snap); len(alerts) > 0 {
		for _, a := range alerts {
			fmt.Fprintf(out, "ALERT [%s] %s\n", a.Severity, a.Message)
			log.Warn("campaign alert", zap.String("type", string(a.Type)), zap.String("message", a.Message))
		}
		alerter.SendAlerts(context.WithoutCancel(ctx), alerts)
	}

	log.Info("send complete",
		zap.String("run_id", results.RunID),
		zap.String("campaign", results.Campaign),
		zap.Bool("test_mode", results.TestMode),
		zap.Time("started_at", results.StartedAt),
		zap.Int("sent", stats.Sent),
		zap.Int("failed", stats.Failed),
		zap.String("results", resultsPath),
	)
	return nil
}

// confirm asks the operator to type the confirmation word.
func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprintf(out, "Type %s to send: ", confirmWord)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.TrimSpace(line) == confirmWord
}
