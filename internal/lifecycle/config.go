package lifecycle

import (
	"context"
	"errors"

	"subscription-engine/internal/domain/subscriptions"
)

func (s *Service) Config(ctx context.Context) (subscriptions.SubscriptionConfig, error) {
	return s.Configs.Get(ctx)
}

// UpdateConfig changes only the provided fields.
func (s *Service) UpdateConfig(ctx context.Context, u subscriptions.ConfigUpdate, adminID uint) (cfg subscriptions.SubscriptionConfig, err error) {
	defer func() { s.observe(ctx, "update_config", adminID, err) }()

	if u.CancelOfferMessage != nil {
		msg := s.cleanText(*u.CancelOfferMessage)
		u.CancelOfferMessage = &msg
	}
	cfg, err = s.Configs.Update(ctx, u, adminID)
	if errors.Is(err, subscriptions.ErrInvalidConfig) {
		return cfg, invalidInput(err.Error())
	}
	return cfg, err
}
