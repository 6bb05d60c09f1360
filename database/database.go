package database

import (
	"log"

	"subscription-engine/internal/domain/accounts"
	"subscription-engine/internal/domain/billing"
	"subscription-engine/internal/domain/recipes"
	"subscription-engine/internal/domain/subscriptions"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Models lists every persisted type, in dependency order.
func Models() []any {
	return []any{
		&accounts.Account{},
		&subscriptions.UserSubscription{},
		&subscriptions.SubscriptionConfig{},
		&subscriptions.CancellationFeedback{},
		&billing.WebhookEvent{},
		&recipes.Recipe{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// InitDB connects to Postgres and migrates the schema. Failure is fatal.
func InitDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	log.Println("✅ Connected and migrated successfully")
	return db
}
