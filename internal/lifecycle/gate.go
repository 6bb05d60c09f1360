package lifecycle

import (
	"context"
)

type RecipeQuota struct {
	Allowed bool  `json:"allowed"`
	Count   int64 `json:"count"`
	// nil when the account has pro access
	Limit *int `json:"limit"`
}

// CanSaveRecipe is the Recipe-Count Gate.
func (s *Service) CanSaveRecipe(ctx context.Context, accountID uint) (RecipeQuota, error) {
	sub, err := s.Records.Get(ctx, accountID)
	if err != nil {
		return RecipeQuota{}, err
	}
	cfg, err := s.Configs.Get(ctx)
	if err != nil {
		return RecipeQuota{}, err
	}
	count, err := s.Recipes.CountByAccount(ctx, accountID)
	if err != nil {
		return RecipeQuota{}, err
	}

	now := s.now()
	q := RecipeQuota{
		Allowed: s.resolver.CanSaveRecipe(*sub, cfg, count, now),
		Count:   count,
	}
	if !s.resolver.HasProAccess(*sub, now) {
		limit := cfg.FreeRecipeLimit
		q.Limit = &limit
	}
	return q, nil
}
