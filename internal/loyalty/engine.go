package loyalty

import (
	"fmt"

	"github.com/oluwatobiadeoye/kolamart-backend/pkg/config"
)

// Engine applies the coin policy: how many coins a shopper may redeem against
// a vendor subtotal, and how many coins a purchase awards.
type Engine struct {
	cfg config.LoyaltyConfig
}

// RedemptionQuote describes the outcome of applying coins to a vendor subtotal.
type RedemptionQuote struct {
	Subtotal      int `json:"subtotal"`
	MaxRedeemable int `json:"max_redeemable"`
	CoinsApplied  int `json:"coins_applied"`
	AmountDue     int `json:"amount_due"`
}

// NewEngine wires a policy engine with validated configuration.
func NewEngine(cfg config.LoyaltyConfig) (*Engine, error) {
	if cfg.RedemptionCapPercent < 0 || cfg.RedemptionCapPercent > 100 {
		return nil, fmt.Errorf("redemption cap percent out of range: %d", cfg.RedemptionCapPercent)
	}
	if cfg.EarnMinPercent < 0 || cfg.EarnMaxPercent > 100 || cfg.EarnMinPercent > cfg.EarnMaxPercent {
		return nil, fmt.Errorf("earn percent band %d..%d is invalid", cfg.EarnMinPercent, cfg.EarnMaxPercent)
	}
	return &Engine{cfg: cfg}, nil
}

// MaxRedeemable returns the largest coin amount spendable against the
// subtotal: the capped share of the subtotal, bounded by the wallet balance.
// Fractions round down so the discount never exceeds the cap.
func (e *Engine) MaxRedeemable(subtotal, balance int) int {
	if subtotal <= 0 || balance <= 0 {
		return 0
	}
	capped := subtotal * e.cfg.RedemptionCapPercent / 100
	if balance < capped {
		return balance
	}
	return capped
}

// Quote resolves the redemption for a vendor subtotal. When redeem is false
// the quote still reports the available headroom without applying it.
func (e *Engine) Quote(subtotal, balance int, redeem bool) RedemptionQuote {
	quote := RedemptionQuote{
		Subtotal:      subtotal,
		MaxRedeemable: e.MaxRedeemable(subtotal, balance),
		AmountDue:     subtotal,
	}
	if redeem {
		quote.CoinsApplied = quote.MaxRedeemable
		quote.AmountDue = subtotal - quote.CoinsApplied
	}
	return quote
}

// EarnPreview returns the coins a completed purchase would award. Vendors that
// have not enabled the program award nothing; enabled vendors award their
// configured percentage clamped into the allowed band.
func (e *Engine) EarnPreview(subtotal, vendorPercent int, enabled bool) int {
	if !enabled || subtotal <= 0 {
		return 0
	}
	percent := e.ClampEarnPercent(vendorPercent)
	return subtotal * percent / 100
}

// ClampEarnPercent forces a vendor-configured award percentage into the band.
func (e *Engine) ClampEarnPercent(percent int) int {
	if percent < e.cfg.EarnMinPercent {
		return e.cfg.EarnMinPercent
	}
	if percent > e.cfg.EarnMaxPercent {
		return e.cfg.EarnMaxPercent
	}
	return percent
}
