package repository

import (
	"context"
	"fmt"

	"subscription-engine/internal/domain/recipes"

	"gorm.io/gorm"
)

// RecipeRepository stores saved recipes and counts them for the free-tier gate.
type RecipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

func (r *RecipeRepository) CountByAccount(ctx context.Context, accountID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&recipes.Recipe{}).Where("account_id = ?", accountID).Count(&n).Error
	return n, err
}

func (r *RecipeRepository) Create(ctx context.Context, rec *recipes.Recipe) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *RecipeRepository) ListByAccount(ctx context.Context, accountID uint) ([]recipes.Recipe, error) {
	var out []recipes.Recipe
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// Delete removes a recipe only if accountID owns it.
func (r *RecipeRepository) Delete(ctx context.Context, accountID uint, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND account_id = ?", id, accountID).Delete(&recipes.Recipe{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: recipe %s", ErrNotFound, id)
	}
	return nil
}
