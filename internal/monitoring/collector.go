// Package monitoring evaluates campaign send results against alert
// thresholds and delivers alerts to a webhook.
package monitoring

import (
	"time"

	"github.com/elit-parking/campaign-cli/internal/cost"
	"github.com/elit-parking/campaign-cli/internal/model"
)

// rateLimitedCode is the Twilio error code for a rate-limited send.
const rateLimitedCode = "20429"

// MetricsSnapshot holds the outcome of one send run.
type MetricsSnapshot struct {
	Attempted   int            `json:"attempted"`
	Sent        int            `json:"sent"`
	Failed      int            `json:"failed"`
	FailureRate float64        `json:"failure_rate"`
	CostUSD     float64        `json:"cost_usd"`
	RateLimited int            `json:"rate_limited"`
	ErrorCodes  map[string]int `json:"error_codes"`
	CollectedAt time.Time      `json:"collected_at"`
}

// Collect builds a snapshot from the per-group summaries of a run. Counts
// come from the detailed results, so they cover exactly these batches.
func Collect(groups map[string]*model.BatchSummary, calc *cost.Calculator) *MetricsSnapshot {
	snap := &MetricsSnapshot{
		ErrorCodes:  map[string]int{},
		CollectedAt: time.Now().UTC(),
	}

	for _, s := range groups {
		if s == nil {
			continue
		}
		for _, r := range s.Results {
			snap.Attempted++
			switch r.Status {
			case model.DispatchSent:
				snap.Sent++
			case model.DispatchFailed:
				snap.Failed++
				if r.Error != nil {
					snap.ErrorCodes[r.Error.Code]++
				}
			}
		}
	}

	snap.RateLimited = snap.ErrorCodes[rateLimitedCode]
	if snap.Attempted > 0 {
		snap.FailureRate = float64(snap.Failed) / float64(snap.Attempted)
	}
	if calc != nil {
		snap.CostUSD = calc.Messages(snap.Sent)
	}
	return snap
}
