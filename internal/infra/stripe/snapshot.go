package stripe

import (
	"strconv"
	"time"

	"github.com/stripe/stripe-go/v75"

	"subscription-engine/internal/domain/subscriptions"
)

// MetadataAccountID is the metadata key carrying our account id on Stripe
// customers, subscriptions and checkout sessions.
const MetadataAccountID = "account_id"

// SnapshotFromSubscription maps a Stripe subscription object onto the
// provider-neutral snapshot.
func SnapshotFromSubscription(sub *stripe.Subscription) subscriptions.ProviderSnapshot {
	if sub == nil {
		return subscriptions.ProviderSnapshot{Status: subscriptions.ProviderStatusNone}
	}

	status := string(sub.Status)
	snap := subscriptions.ProviderSnapshot{
		AccountID:         accountIDFromMetadata(sub.Metadata),
		SubscriptionID:    sub.ID,
		Status:            NormalizeStripeStatus(&status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		snap.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		snap.PriceID = sub.Items.Data[0].Price.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		snap.CurrentPeriodEnd = unixTime(sub.CurrentPeriodEnd)
	}
	if sub.PauseCollection != nil && sub.PauseCollection.Behavior != "" {
		snap.Paused = true
		if sub.PauseCollection.ResumesAt > 0 {
			snap.PauseResumesAt = unixTime(sub.PauseCollection.ResumesAt)
		}
	}
	return snap
}

// pickSubscription chooses the subscription that should drive entitlement
// when a customer has more than one: the best status, then the latest period end.
func pickSubscription(subs []*stripe.Subscription) *stripe.Subscription {
	var best *stripe.Subscription
	bestRank := 0
	for _, sub := range subs {
		if sub == nil {
			continue
		}
		status := string(sub.Status)
		rank := statusRank(NormalizeStripeStatus(&status))
		if best == nil || rank < bestRank || (rank == bestRank && sub.CurrentPeriodEnd > best.CurrentPeriodEnd) {
			best, bestRank = sub, rank
		}
	}
	return best
}

func accountIDFromMetadata(md map[string]string) uint {
	if md == nil {
		return 0
	}
	return parseAccountID(md[MetadataAccountID])
}

func parseAccountID(s string) uint {
	if s == "" {
		return 0
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func unixTime(sec int64) *time.Time {
	t := time.Unix(sec, 0).UTC()
	return &t
}
