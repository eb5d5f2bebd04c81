package api

import (
	"context"

	"cautiva/ledger"
	"cautiva/models"
)

// TransactionLister 交易读取
type TransactionLister interface {
	List(ctx context.Context) ([]models.Transaction, error)
}

// snapshotSource 镜像就绪后读镜像，否则直接查库
type snapshotSource struct {
	book *ledger.Book
	repo TransactionLister
}

func (s snapshotSource) transactions(ctx context.Context) ([]models.Transaction, error) {
	if s.book != nil {
		select {
		case <-s.book.Ready():
			return s.book.Snapshot(), nil
		default:
		}
	}
	return s.repo.List(ctx)
}
