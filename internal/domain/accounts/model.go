package accounts

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account is the owning identity of a subscription record. Privileged
// operations check Role on this record instead of comparing emails.
type Account struct {
	ID    uint   `gorm:"primaryKey"`
	Email string `gorm:"not null;uniqueIndex:idx_accounts_email"`
	Name  string
	Role  string `gorm:"type:varchar(20);not null;default:'user'"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}
