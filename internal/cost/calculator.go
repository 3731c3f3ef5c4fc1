package cost

import (
	"slices"

	"github.com/elit-parking/campaign-cli/internal/config"
)

// Rates holds messaging prices.
type Rates struct {
	PerMessage float64 `yaml:"per_message" mapstructure:"per_message"`
	Currency   string  `yaml:"currency" mapstructure:"currency"`
}

// RatesFromConfig converts the pricing config section.
func RatesFromConfig(p config.PricingConfig) Rates {
	return Rates{PerMessage: p.PerMessage, Currency: p.Currency}
}

// DefaultRates returns the default WhatsApp marketing message price.
func DefaultRates() Rates {
	return Rates{PerMessage: 0.005, Currency: "USD"}
}

// Calculator computes campaign costs.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Messages returns the cost of sending n messages.
func (c *Calculator) Messages(n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n) * c.rates.PerMessage
}

// GroupCost is the estimate for one test group.
type GroupCost struct {
	Group    string  `json:"group" yaml:"group"`
	Messages int     `json:"messages" yaml:"messages"`
	Cost     float64 `json:"cost" yaml:"cost"`
}

// Estimate is the projected cost of a campaign.
type Estimate struct {
	Groups   []GroupCost `json:"groups" yaml:"groups"`
	Messages int         `json:"messages" yaml:"messages"`
	Total    float64     `json:"total" yaml:"total"`
	Currency string      `json:"currency" yaml:"currency"`
}

// Estimate projects the cost of one message per contact in each group.
// Groups are listed in label order.
func (c *Calculator) Estimate(groupCounts map[string]int) Estimate {
	labels := make([]string, 0, len(groupCounts))
	for g := range groupCounts {
		labels = append(labels, g)
	}
	slices.Sort(labels)

	est := Estimate{Currency: c.rates.Currency}
	for _, g := range labels {
		n := groupCounts[g]
		gc := GroupCost{Group: g, Messages: n, Cost: c.Messages(n)}
		est.Groups = append(est.Groups, gc)
		est.Messages += n
		est.Total += gc.Cost
	}
	return est
}
