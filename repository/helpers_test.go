package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"cautiva/database"
	"cautiva/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTx(typ models.TransactionType, amount string, category string, date time.Time) models.Transaction {
	return models.Transaction{
		Type:        typ,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Description: models.ComposeDescription(category, "prueba"),
		Date:        date.UTC(),
	}
}

// waitSnapshot 读取订阅直到满足条件
func waitSnapshot(t *testing.T, sub *Subscription, cond func([]models.Transaction) bool) []models.Transaction {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap, ok := <-sub.C():
			require.True(t, ok, "subscription closed early: %v", sub.Err())
			if cond(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timeout waiting for snapshot")
			return nil
		}
	}
}
