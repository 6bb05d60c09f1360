package subscriptions

type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusTrialing  Status = "trialing"
	StatusCancelled Status = "cancelled"
	StatusPaused    Status = "paused"
)

// Interval is a billing cadence a checkout can be created for.
type Interval string

const (
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

func ParseInterval(s string) (Interval, bool) {
	switch Interval(s) {
	case IntervalWeekly, IntervalMonthly, IntervalYearly:
		return Interval(s), true
	}
	return "", false
}
