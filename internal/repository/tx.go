package repository

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner runs fn inside a database transaction. Repositories accept the tx
// handle as an optional argument; nil means "use the root connection".
type TxRunner interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTx struct{ db *gorm.DB }

func NewTxRunner(db *gorm.DB) TxRunner { return &gormTx{db: db} }

func (t *gormTx) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}

func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
