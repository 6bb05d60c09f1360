package repository_test

import (
	"testing"

	"gorm.io/gorm"

	"subscription-engine/internal/testutil"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewDB(t)
}

func ptr[T any](v T) *T { return &v }
