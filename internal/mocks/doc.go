// Package mocks provides shared test doubles for the store, auth and
// events interfaces.
//
// The Mock* stores are in-memory implementations backed by maps: they
// honour owner scoping, filtering, ordering and uniqueness the way the
// PostgreSQL stores do, and every method can be overridden through its Fn
// field. The Testify* variants are github.com/stretchr/testify/mock
// doubles for tests that need to assert on exact calls.
//
//	users := mocks.NewMockUserStore()
//	users.GetByIDFn = func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
//	    return nil, errors.New("db down")
//	}
package mocks
