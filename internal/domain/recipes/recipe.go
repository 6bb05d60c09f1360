package recipes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipe is a saved recipe owned by one account. Only ownership and count
// matter to this service; content is opaque.
type Recipe struct {
	ID        string `gorm:"type:varchar(36);primaryKey" json:"id"`
	AccountID uint   `gorm:"not null;index" json:"-"`

	Title     string `gorm:"type:text;not null" json:"title"`
	SourceURL string `json:"source_url,omitempty"`
	Body      string `gorm:"type:text" json:"body,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Recipe) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
