package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormStore is the PostgreSQL-backed Store.
type GormStore struct {
	DB          *gorm.DB
	LockTimeout time.Duration
}

func NewGormStore(db *gorm.DB, lockTimeout time.Duration) *GormStore {
	return &GormStore{DB: db, LockTimeout: lockTimeout}
}

func (s *GormStore) Materials() Materials {
	return &MaterialRepository{DB: s.DB}
}

func (s *GormStore) Recipes() Recipes {
	return &RecipeRepository{DB: s.DB}
}

func (s *GormStore) Transactions() Transactions {
	return &TransactionRepository{DB: s.DB}
}

func (s *GormStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.LockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.LockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&GormStore{DB: tx, LockTimeout: s.LockTimeout})
	})
	return translateError("transaction", err)
}
