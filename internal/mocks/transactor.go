package mocks

import (
	"context"

	"github.com/phrazzld/taskkeeper/internal/store"
)

// MockTransactor implements store.Transactor without a database. fn is
// called with a nil *sql.Tx, which the in-memory stores ignore.
type MockTransactor struct {
	Calls int
	Err   error
}

// WithinTransaction implements store.Transactor.
func (m *MockTransactor) WithinTransaction(ctx context.Context, fn store.TxFn) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	return fn(ctx, nil)
}

var _ store.Transactor = (*MockTransactor)(nil)
