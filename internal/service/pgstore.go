package service

import (
	"context"

	"workplan/internal/store"
)

type pgStore struct {
	*store.Store
}

// FromStore adapts the Postgres store to the engine's Store interface.
func FromStore(s *store.Store) Store {
	return pgStore{Store: s}
}

func (p pgStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return p.Store.InTx(ctx, func(tx *store.Tx) error {
		return fn(tx)
	})
}
