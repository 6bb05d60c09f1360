package recipes

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"subscription-engine/internal/api/respond"
	"subscription-engine/internal/domain/recipes"
	"subscription-engine/internal/lifecycle"
)

type Store interface {
	Create(ctx context.Context, rec *recipes.Recipe) error
	ListByAccount(ctx context.Context, accountID uint) ([]recipes.Recipe, error)
	Delete(ctx context.Context, accountID uint, id string) error
}

type Gate interface {
	CanSaveRecipe(ctx context.Context, accountID uint) (lifecycle.RecipeQuota, error)
}

type Handler struct {
	store Store
	gate  Gate
}

func NewHandler(store Store, gate Gate) *Handler {
	return &Handler{store: store, gate: gate}
}

// CanSave reports whether the caller may save one more recipe.
func (h *Handler) CanSave(c *gin.Context) {
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	q, err := h.gate.CanSaveRecipe(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	list, err := h.store.ListByAccount(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create saves a recipe. The quota is enforced by middleware on the route.
func (h *Handler) Create(c *gin.Context) {
	var body struct {
		Title     string `json:"title" binding:"required,notblank,max=200"`
		SourceURL string `json:"source_url" binding:"omitempty,url"`
		Body      string `json:"body"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "Title is required")
		return
	}
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	rec := &recipes.Recipe{
		AccountID: userID,
		Title:     strings.TrimSpace(body.Title),
		SourceURL: strings.TrimSpace(body.SourceURL),
		Body:      body.Body,
	}
	if err := h.store.Create(c.Request.Context(), rec); err != nil {
		respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Delete(c *gin.Context) {
	userID, ok := respond.UserID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
