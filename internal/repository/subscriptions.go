package repository

import (
	"context"
	"errors"
	"fmt"

	"subscription-engine/internal/domain/subscriptions"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository is the only writer of user_subscriptions. Writes
// are column-level so components updating disjoint fields never overwrite
// each other.
type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Get(ctx context.Context, accountID uint) (*subscriptions.UserSubscription, error) {
	var sub subscriptions.UserSubscription
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: subscription for account %d", ErrNotFound, accountID)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create inserts sub unless the account already has a record. It returns the
// stored record and whether this call created it.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscriptions.UserSubscription) (*subscriptions.UserSubscription, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "account_id"}}, DoNothing: true}).
		Create(sub)
	if res.Error != nil {
		return nil, false, res.Error
	}
	stored, err := r.Get(ctx, sub.AccountID)
	if err != nil {
		return nil, false, err
	}
	return stored, res.RowsAffected > 0, nil
}

// Update writes patch on behalf of owner. Every guard must still hold at
// write time or nothing is written and ErrConflict is returned.
func (r *SubscriptionRepository) Update(
	ctx context.Context,
	owner subscriptions.Owner,
	accountID uint,
	patch subscriptions.Patch,
	guards ...subscriptions.Guard,
) (*subscriptions.UserSubscription, error) {
	if err := patch.Check(owner); err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx).Model(&subscriptions.UserSubscription{}).Where("account_id = ?", accountID)
	for _, g := range guards {
		if g.Value == nil {
			q = q.Where(fmt.Sprintf("%s IS NULL", g.Field))
			continue
		}
		q = q.Where(fmt.Sprintf("%s = ?", g.Field), g.ColumnValue())
	}

	res := q.Updates(patch.Columns())
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, accountID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: account %d", ErrConflict, accountID)
	}
	return r.Get(ctx, accountID)
}

func (r *SubscriptionRepository) List(ctx context.Context) ([]subscriptions.UserSubscription, error) {
	var subs []subscriptions.UserSubscription
	if err := r.db.WithContext(ctx).Order("account_id ASC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriptionRepository) FindByCustomerID(ctx context.Context, customerID string) (*subscriptions.UserSubscription, error) {
	return r.findBy(ctx, "stripe_customer_id", customerID)
}

func (r *SubscriptionRepository) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*subscriptions.UserSubscription, error) {
	return r.findBy(ctx, "stripe_subscription_id", subscriptionID)
}

func (r *SubscriptionRepository) findBy(ctx context.Context, column, value string) (*subscriptions.UserSubscription, error) {
	if value == "" {
		return nil, ErrNotFound
	}
	var sub subscriptions.UserSubscription
	err := r.db.WithContext(ctx).Where(column+" = ?", value).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: subscription with %s %s", ErrNotFound, column, value)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
