package main

import (
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elit-parking/campaign-cli/internal/contactio"
	"github.com/elit-parking/campaign-cli/internal/cost"
	"github.com/elit-parking/campaign-cli/internal/pipeline"
	"github.com/elit-parking/campaign-cli/internal/scorer"
	"github.com/elit-parking/campaign-cli/internal/split"
)

type prepareOptions struct {
	input        string
	outputDir    string
	allCountries bool
	seed         uint64
	seedSet      bool
}

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Clean a contact export and assign test groups",
	Long: `Clean a CSV or XLSX contact export, remove duplicates and foreign numbers,
derive first names, assign each contact to a test group, and write a
timestamped prepared_contacts CSV to the output directory.

Examples:
  prepare --input clients.csv
  prepare --input clients.xlsx --all-countries --seed 7`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := cmd.Flags()
		opts := prepareOptions{}
		opts.input, _ = f.GetString("input")
		opts.outputDir, _ = f.GetString("output-dir")
		opts.allCountries, _ = f.GetBool("all-countries")
		opts.seed, _ = f.GetUint64("seed")
		opts.seedSet = f.Changed("seed")
		return runPrepare(cmd.OutOrStdout(), opts, time.Now())
	},
}

func init() {
	f := prepareCmd.Flags()
	f.String("input", "", "contact export (.csv or .xlsx, required)")
	f.String("output-dir", "", "directory for the prepared file (default: output.dir)")
	f.Bool("all-countries", false, "keep numbers outside pipeline.country_prefix")
	f.Uint64("seed", 0, "group assignment seed (default: split.seed)")
	_ = prepareCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(out io.Writer, opts prepareOptions, now time.Time) error {
	if err := cfg.Validate("prepare"); err != nil {
		return err
	}
	if err := scorer.ValidateConfig(cfg.Scorer); err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "prepare"), zap.String("input", opts.input))

	raw, err := contactio.ReadContacts(opts.input)
	if err != nil {
		return eris.Wrap(err, "prepare: read contacts")
	}
	log.Info("contacts loaded", zap.Int("rows", len(raw)))

	clean, stats, err := pipeline.Process(raw, pipeline.Options{
		DomesticOnly:  cfg.Pipeline.DomesticOnly && !opts.allCountries,
		CountryPrefix: cfg.Pipeline.CountryPrefix,
		Scorer:        scorer.NewQualityScorer(cfg.Scorer),
	})
	if err != nil {
		return eris.Wrap(err, "prepare: process contacts")
	}

	seed := cfg.Split.Seed
	if opts.seedSet {
		seed = opts.seed
	}
	assigned, err := split.Split(clean, cfg.Split.Groups, seed)
	if err != nil {
		return eris.Wrap(err, "prepare: assign groups")
	}

	path, err := contactio.WritePrepared(outputDir(opts.outputDir), assigned, now)
	if err != nil {
		return eris.Wrap(err, "prepare: write prepared contacts")
	}

	fmt.Fprintf(out, "Contacts cleaned\n")
	fmt.Fprintf(out, "  initial:             %d\n", stats.InitialCount)
	fmt.Fprintf(out, "  invalid phones:      %d\n", stats.InvalidPhonesRemoved)
	fmt.Fprintf(out, "  duplicates removed:  %d\n", stats.DuplicatesRemoved)
	fmt.Fprintf(out, "  invalid names:       %d\n", stats.InvalidNamesRemoved)
	fmt.Fprintf(out, "  foreign numbers:     %d\n", stats.ForeignNumbersRemoved)
	fmt.Fprintf(out, "  final:               %d (%.1f%% reduction)\n", stats.FinalCount, stats.ReductionPercentage)
	fmt.Fprintf(out, "  with email:          %d (%.1f%%)\n", stats.HasEmailCount, stats.EmailPercentage)
	fmt.Fprintf(out, "  with first name:     %d (%.1f%%)\n", stats.HasFirstNameCount, stats.FirstNamePercentage)

	counts := map[string]int{}
	if len(assigned) > 0 {
		groupStats, err := split.Statistics(assigned)
		if err != nil {
			return eris.Wrap(err, "prepare: group statistics")
		}
		fmt.Fprintf(out, "\nGroups (seed %d)\n", seed)
		for _, g := range cfg.Split.Groups {
			gs := groupStats[g]
			counts[g] = gs.Count
			fmt.Fprintf(out, "  %s: %d (%.1f%%), %d with email, %d with first name\n",
				g, gs.Count, gs.Percentage, gs.HasEmailCount, gs.HasFirstNameCount)
		}
	}

	est := cost.NewCalculator(cost.RatesFromConfig(cfg.Pricing)).Estimate(counts)
	fmt.Fprintf(out, "\nEstimated cost: %.2f %s for %d messages\n", est.Total, est.Currency, est.Messages)
	fmt.Fprintf(out, "Prepared file: %s\n", path)

	log.Info("prepare complete",
		zap.String("path", path),
		zap.Int("final_count", stats.FinalCount),
		zap.Float64("estimated_cost", est.Total),
	)
	return nil
}
