package subscriptions

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SingletonConfigID keys the only row of subscription_configs.
const SingletonConfigID = "global"

var ErrInvalidConfig = errors.New("invalid subscription config")

// SubscriptionConfig holds global pricing, trial and retention parameters.
// Prices are in minor currency units.
type SubscriptionConfig struct {
	ID string `gorm:"primaryKey;type:varchar(32)" json:"-"`

	TrialDays             int   `gorm:"not null" json:"trial_days"`
	WeeklyPriceCents      int64 `gorm:"not null" json:"weekly_price_cents"`
	MonthlyPriceCents     int64 `gorm:"not null" json:"monthly_price_cents"`
	YearlyPriceCents      int64 `gorm:"not null" json:"yearly_price_cents"`
	YearlyDiscountPercent int   `gorm:"not null" json:"yearly_discount_percent"`
	FreeRecipeLimit       int   `gorm:"not null" json:"free_recipe_limit"`

	StripeWeeklyPriceID  string `json:"stripe_weekly_price_id"`
	StripeMonthlyPriceID string `json:"stripe_monthly_price_id"`
	StripeYearlyPriceID  string `json:"stripe_yearly_price_id"`

	CancelOfferEnabled         bool   `gorm:"not null" json:"cancel_offer_enabled"`
	CancelOfferDiscountPercent int    `gorm:"not null" json:"cancel_offer_discount_percent"`
	CancelOfferDurationMonths  int    `gorm:"not null" json:"cancel_offer_duration_months"`
	CancelOfferMessage         string `gorm:"type:text" json:"cancel_offer_message"`

	UpdatedBy *uint     `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultConfig is used until an admin saves the first configuration.
func DefaultConfig() SubscriptionConfig {
	return SubscriptionConfig{
		ID:                         SingletonConfigID,
		TrialDays:                  7,
		WeeklyPriceCents:           299,
		MonthlyPriceCents:          999,
		YearlyPriceCents:           7999,
		YearlyDiscountPercent:      33,
		FreeRecipeLimit:            20,
		CancelOfferEnabled:         false,
		CancelOfferDiscountPercent: 50,
		CancelOfferDurationMonths:  3,
		CancelOfferMessage:         "We'd hate to see you go! Stay and get {discount}% off for the next {months} months.",
	}
}

// PriceIDFor returns the provider price for interval, or false when unset.
func (c SubscriptionConfig) PriceIDFor(interval Interval) (string, bool) {
	var id string
	switch interval {
	case IntervalWeekly:
		id = c.StripeWeeklyPriceID
	case IntervalMonthly:
		id = c.StripeMonthlyPriceID
	case IntervalYearly:
		id = c.StripeYearlyPriceID
	}
	return id, id != ""
}

// OfferConfigured reports whether a retention offer can be presented at all.
func (c SubscriptionConfig) OfferConfigured() bool {
	return c.CancelOfferEnabled && c.CancelOfferDiscountPercent > 0 && c.CancelOfferDurationMonths > 0
}

// RenderOfferMessage fills {discount} and {months} in the offer template.
func (c SubscriptionConfig) RenderOfferMessage() string {
	r := strings.NewReplacer(
		"{discount}", strconv.Itoa(c.CancelOfferDiscountPercent),
		"{months}", strconv.Itoa(c.CancelOfferDurationMonths),
	)
	return r.Replace(c.CancelOfferMessage)
}

// ConfigUpdate is a partial admin edit. Nil fields are left untouched.
// Per-field ranges are enforced when the body is bound.
type ConfigUpdate struct {
	TrialDays                  *int    `json:"trial_days" binding:"omitempty,gte=0,lte=365"`
	WeeklyPriceCents           *int64  `json:"weekly_price_cents" binding:"omitempty,gte=0"`
	MonthlyPriceCents          *int64  `json:"monthly_price_cents" binding:"omitempty,gte=0"`
	YearlyPriceCents           *int64  `json:"yearly_price_cents" binding:"omitempty,gte=0"`
	YearlyDiscountPercent      *int    `json:"yearly_discount_percent" binding:"omitempty,gte=0,lte=100"`
	FreeRecipeLimit            *int    `json:"free_recipe_limit" binding:"omitempty,gte=0"`
	StripeWeeklyPriceID        *string `json:"stripe_weekly_price_id"`
	StripeMonthlyPriceID       *string `json:"stripe_monthly_price_id"`
	StripeYearlyPriceID        *string `json:"stripe_yearly_price_id"`
	CancelOfferEnabled         *bool   `json:"cancel_offer_enabled"`
	CancelOfferDiscountPercent *int    `json:"cancel_offer_discount_percent" binding:"omitempty,gte=0,lte=100"`
	CancelOfferDurationMonths  *int    `json:"cancel_offer_duration_months" binding:"omitempty,gte=0,lte=36"`
	CancelOfferMessage         *string `json:"cancel_offer_message" binding:"omitempty,max=500"`
}

// Columns lists only the provided fields, keyed by column name.
func (u ConfigUpdate) Columns() map[string]any {
	cols := map[string]any{}
	if u.TrialDays != nil {
		cols["trial_days"] = *u.TrialDays
	}
	if u.WeeklyPriceCents != nil {
		cols["weekly_price_cents"] = *u.WeeklyPriceCents
	}
	if u.MonthlyPriceCents != nil {
		cols["monthly_price_cents"] = *u.MonthlyPriceCents
	}
	if u.YearlyPriceCents != nil {
		cols["yearly_price_cents"] = *u.YearlyPriceCents
	}
	if u.YearlyDiscountPercent != nil {
		cols["yearly_discount_percent"] = *u.YearlyDiscountPercent
	}
	if u.FreeRecipeLimit != nil {
		cols["free_recipe_limit"] = *u.FreeRecipeLimit
	}
	if u.StripeWeeklyPriceID != nil {
		cols["stripe_weekly_price_id"] = strings.TrimSpace(*u.StripeWeeklyPriceID)
	}
	if u.StripeMonthlyPriceID != nil {
		cols["stripe_monthly_price_id"] = strings.TrimSpace(*u.StripeMonthlyPriceID)
	}
	if u.StripeYearlyPriceID != nil {
		cols["stripe_yearly_price_id"] = strings.TrimSpace(*u.StripeYearlyPriceID)
	}
	if u.CancelOfferEnabled != nil {
		cols["cancel_offer_enabled"] = *u.CancelOfferEnabled
	}
	if u.CancelOfferDiscountPercent != nil {
		cols["cancel_offer_discount_percent"] = *u.CancelOfferDiscountPercent
	}
	if u.CancelOfferDurationMonths != nil {
		cols["cancel_offer_duration_months"] = *u.CancelOfferDurationMonths
	}
	if u.CancelOfferMessage != nil {
		cols["cancel_offer_message"] = *u.CancelOfferMessage
	}
	return cols
}

// Apply returns c with the update merged in.
func (u ConfigUpdate) Apply(c SubscriptionConfig) SubscriptionConfig {
	if u.TrialDays != nil {
		c.TrialDays = *u.TrialDays
	}
	if u.WeeklyPriceCents != nil {
		c.WeeklyPriceCents = *u.WeeklyPriceCents
	}
	if u.MonthlyPriceCents != nil {
		c.MonthlyPriceCents = *u.MonthlyPriceCents
	}
	if u.YearlyPriceCents != nil {
		c.YearlyPriceCents = *u.YearlyPriceCents
	}
	if u.YearlyDiscountPercent != nil {
		c.YearlyDiscountPercent = *u.YearlyDiscountPercent
	}
	if u.FreeRecipeLimit != nil {
		c.FreeRecipeLimit = *u.FreeRecipeLimit
	}
	if u.StripeWeeklyPriceID != nil {
		c.StripeWeeklyPriceID = strings.TrimSpace(*u.StripeWeeklyPriceID)
	}
	if u.StripeMonthlyPriceID != nil {
		c.StripeMonthlyPriceID = strings.TrimSpace(*u.StripeMonthlyPriceID)
	}
	if u.StripeYearlyPriceID != nil {
		c.StripeYearlyPriceID = strings.TrimSpace(*u.StripeYearlyPriceID)
	}
	if u.CancelOfferEnabled != nil {
		c.CancelOfferEnabled = *u.CancelOfferEnabled
	}
	if u.CancelOfferDiscountPercent != nil {
		c.CancelOfferDiscountPercent = *u.CancelOfferDiscountPercent
	}
	if u.CancelOfferDurationMonths != nil {
		c.CancelOfferDurationMonths = *u.CancelOfferDurationMonths
	}
	if u.CancelOfferMessage != nil {
		c.CancelOfferMessage = *u.CancelOfferMessage
	}
	return c
}

// Validate checks rules that span fields of the merged configuration.
func (c SubscriptionConfig) Validate() error {
	if c.CancelOfferEnabled && (c.CancelOfferDiscountPercent == 0 || c.CancelOfferDurationMonths == 0) {
		return fmt.Errorf("%w: an enabled cancel offer needs a discount and a duration", ErrInvalidConfig)
	}
	return nil
}
