package subscriptions

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrFieldNotOwned = errors.New("subscription field not owned by writer")
	ErrEmptyPatch    = errors.New("subscription patch is empty")
	ErrInvalidValue  = errors.New("invalid subscription field value")
)

// Field is a column of the user_subscriptions table that a Patch may set.
type Field string

const (
	FieldTier                   Field = "tier"
	FieldStatus                 Field = "status"
	FieldTrialStartedAt         Field = "trial_started_at"
	FieldTrialEndsAt            Field = "trial_ends_at"
	FieldStripeCustomerID       Field = "stripe_customer_id"
	FieldStripeSubscriptionID   Field = "stripe_subscription_id"
	FieldStripePriceID          Field = "stripe_price_id"
	FieldStripeCurrentPeriodEnd Field = "stripe_current_period_end"
	FieldCancelAtPeriodEnd      Field = "cancel_at_period_end"
	FieldStripeSyncedAt         Field = "stripe_synced_at"
	FieldAdminGrantedPro        Field = "admin_granted_pro"
	FieldAdminGrantedBy         Field = "admin_granted_by"
	FieldAdminGrantExpiresAt    Field = "admin_grant_expires_at"
	FieldAdminGrantNote         Field = "admin_grant_note"
	FieldPausedAt               Field = "paused_at"
	FieldPauseResumesAt         Field = "pause_resumes_at"
	FieldRetentionOfferUsedAt   Field = "retention_offer_used_at"
)

// Owner identifies the component issuing a write.
type Owner string

const (
	OwnerBillingSync  Owner = "billing_sync"
	OwnerAdminGrant   Owner = "admin_grant"
	OwnerTrial        Owner = "trial"
	OwnerPause        Owner = "pause"
	OwnerCancellation Owner = "cancellation"
	OwnerReset        Owner = "reset"
)

var allFields = []Field{
	FieldTier, FieldStatus,
	FieldTrialStartedAt, FieldTrialEndsAt,
	FieldStripeCustomerID, FieldStripeSubscriptionID, FieldStripePriceID,
	FieldStripeCurrentPeriodEnd, FieldCancelAtPeriodEnd, FieldStripeSyncedAt,
	FieldAdminGrantedPro, FieldAdminGrantedBy, FieldAdminGrantExpiresAt, FieldAdminGrantNote,
	FieldPausedAt, FieldPauseResumesAt,
	FieldRetentionOfferUsedAt,
}

var ownership = map[Owner][]Field{
	OwnerBillingSync: {
		FieldTier, FieldStatus,
		FieldTrialStartedAt, FieldTrialEndsAt,
		FieldStripeCustomerID, FieldStripeSubscriptionID, FieldStripePriceID,
		FieldStripeCurrentPeriodEnd, FieldCancelAtPeriodEnd, FieldStripeSyncedAt,
		FieldPausedAt, FieldPauseResumesAt,
	},
	OwnerAdminGrant: {
		FieldTier, FieldStatus,
		FieldAdminGrantedPro, FieldAdminGrantedBy, FieldAdminGrantExpiresAt, FieldAdminGrantNote,
	},
	OwnerTrial:        {FieldTier, FieldStatus, FieldTrialStartedAt, FieldTrialEndsAt},
	OwnerPause:        {FieldStatus, FieldPausedAt, FieldPauseResumesAt},
	OwnerCancellation: {FieldCancelAtPeriodEnd, FieldRetentionOfferUsedAt},
	OwnerReset:        allFields,
}

// Owns reports whether owner may write field.
func (o Owner) Owns(f Field) bool {
	for _, owned := range ownership[o] {
		if owned == f {
			return true
		}
	}
	return false
}

// Patch is a partial update of a UserSubscription. Only the listed columns
// are written, so writers touching disjoint fields never clobber each other.
// A nil value clears a nullable column.
type Patch map[Field]any

// Check verifies every field in the patch belongs to owner and carries a
// value of the right type.
func (p Patch) Check(owner Owner) error {
	if len(p) == 0 {
		return ErrEmptyPatch
	}
	for f, v := range p {
		if !owner.Owns(f) {
			return fmt.Errorf("%w: %s cannot write %s", ErrFieldNotOwned, owner, f)
		}
		if err := checkValue(f, v); err != nil {
			return err
		}
	}
	return nil
}

// Columns converts the patch into a column map for gorm Updates.
func (p Patch) Columns() map[string]any {
	cols := make(map[string]any, len(p))
	for f, v := range p {
		cols[string(f)] = columnValue(v)
	}
	return cols
}

// ApplyTo writes the patch into s. Callers must Check the patch first.
func (p Patch) ApplyTo(s *UserSubscription) {
	for f, v := range p {
		switch f {
		case FieldTier:
			s.Tier = v.(Tier)
		case FieldStatus:
			s.Status = v.(Status)
		case FieldTrialStartedAt:
			s.TrialStartedAt = timePtr(v)
		case FieldTrialEndsAt:
			s.TrialEndsAt = timePtr(v)
		case FieldStripeCustomerID:
			s.StripeCustomerID = stringPtr(v)
		case FieldStripeSubscriptionID:
			s.StripeSubscriptionID = stringPtr(v)
		case FieldStripePriceID:
			s.StripePriceID = stringPtr(v)
		case FieldStripeCurrentPeriodEnd:
			s.StripeCurrentPeriodEnd = timePtr(v)
		case FieldCancelAtPeriodEnd:
			s.CancelAtPeriodEnd = v.(bool)
		case FieldStripeSyncedAt:
			s.StripeSyncedAt = timePtr(v)
		case FieldAdminGrantedPro:
			s.AdminGrantedPro = v.(bool)
		case FieldAdminGrantedBy:
			if v == nil {
				s.AdminGrantedBy = nil
			} else {
				id := v.(uint)
				s.AdminGrantedBy = &id
			}
		case FieldAdminGrantExpiresAt:
			s.AdminGrantExpiresAt = timePtr(v)
		case FieldAdminGrantNote:
			s.AdminGrantNote = stringPtr(v)
		case FieldPausedAt:
			s.PausedAt = timePtr(v)
		case FieldPauseResumesAt:
			s.PauseResumesAt = timePtr(v)
		case FieldRetentionOfferUsedAt:
			s.RetentionOfferUsedAt = timePtr(v)
		}
	}
}

// ChangesNothing reports whether writing the patch would leave s as it is.
// Times are compared as instants, so a value read back in another location
// still counts as unchanged.
func (p Patch) ChangesNothing(s UserSubscription) bool {
	for f, v := range p {
		if !sameValue(s.Value(f), v) {
			return false
		}
	}
	return true
}

// Value returns the current value of f in the form a Patch carries it:
// nil for a NULL column, otherwise the dereferenced value.
func (s UserSubscription) Value(f Field) any {
	switch f {
	case FieldTier:
		return s.Tier
	case FieldStatus:
		return s.Status
	case FieldTrialStartedAt:
		return timeValue(s.TrialStartedAt)
	case FieldTrialEndsAt:
		return timeValue(s.TrialEndsAt)
	case FieldStripeCustomerID:
		return stringValue(s.StripeCustomerID)
	case FieldStripeSubscriptionID:
		return stringValue(s.StripeSubscriptionID)
	case FieldStripePriceID:
		return stringValue(s.StripePriceID)
	case FieldStripeCurrentPeriodEnd:
		return timeValue(s.StripeCurrentPeriodEnd)
	case FieldCancelAtPeriodEnd:
		return s.CancelAtPeriodEnd
	case FieldStripeSyncedAt:
		return timeValue(s.StripeSyncedAt)
	case FieldAdminGrantedPro:
		return s.AdminGrantedPro
	case FieldAdminGrantedBy:
		if s.AdminGrantedBy == nil {
			return nil
		}
		return *s.AdminGrantedBy
	case FieldAdminGrantExpiresAt:
		return timeValue(s.AdminGrantExpiresAt)
	case FieldAdminGrantNote:
		return stringValue(s.AdminGrantNote)
	case FieldPausedAt:
		return timeValue(s.PausedAt)
	case FieldPauseResumesAt:
		return timeValue(s.PauseResumesAt)
	case FieldRetentionOfferUsedAt:
		return timeValue(s.RetentionOfferUsedAt)
	}
	return nil
}

func sameValue(a, b any) bool {
	ta, aIsTime := a.(time.Time)
	tb, bIsTime := b.(time.Time)
	if aIsTime || bIsTime {
		return aIsTime && bIsTime && ta.Equal(tb)
	}
	return a == b
}

func timeValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func stringValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// columnValue unwraps the enum types so drivers see plain strings.
func columnValue(v any) any {
	switch x := v.(type) {
	case Tier:
		return string(x)
	case Status:
		return string(x)
	}
	return v
}

func checkValue(f Field, v any) error {
	ok := false
	switch f {
	case FieldTier:
		t, isTier := v.(Tier)
		ok = isTier && (t == TierFree || t == TierPro)
	case FieldStatus:
		st, isStatus := v.(Status)
		ok = isStatus && (st == StatusActive || st == StatusTrialing || st == StatusCancelled || st == StatusPaused)
	case FieldCancelAtPeriodEnd, FieldAdminGrantedPro:
		_, ok = v.(bool)
	case FieldAdminGrantedBy:
		_, isUint := v.(uint)
		ok = v == nil || isUint
	case FieldStripeCustomerID, FieldStripeSubscriptionID, FieldStripePriceID, FieldAdminGrantNote:
		_, isString := v.(string)
		ok = v == nil || isString
	default:
		_, isTime := v.(time.Time)
		ok = v == nil || isTime
	}
	if !ok {
		return fmt.Errorf("%w: %s=%v (%T)", ErrInvalidValue, f, v, v)
	}
	return nil
}

func timePtr(v any) *time.Time {
	if v == nil {
		return nil
	}
	t := v.(time.Time)
	return &t
}

func stringPtr(v any) *string {
	if v == nil {
		return nil
	}
	s := v.(string)
	return &s
}

// Guard is an equality precondition evaluated atomically with a write.
// A nil Value means the column must be NULL.
type Guard struct {
	Field Field
	Value any
}

func StatusIs(s Status) Guard          { return Guard{Field: FieldStatus, Value: s} }
func CancelPending(b bool) Guard       { return Guard{Field: FieldCancelAtPeriodEnd, Value: b} }
func NoBillingSubscription() Guard     { return Guard{Field: FieldStripeSubscriptionID, Value: nil} }
func SubscriptionIDIs(id string) Guard { return Guard{Field: FieldStripeSubscriptionID, Value: id} }
func OfferUnused() Guard               { return Guard{Field: FieldRetentionOfferUsedAt, Value: nil} }

// Matches evaluates the guard against an in-memory record.
func (g Guard) Matches(s UserSubscription) bool {
	return sameValue(s.Value(g.Field), g.Value)
}

// ColumnValue is the guard value as it should be bound in a query.
func (g Guard) ColumnValue() any {
	return columnValue(g.Value)
}
