// Package testutils holds helpers shared by package tests: database access
// for the PostgreSQL integration tests, with per-test transaction rollback,
// fixture builders, and an in-memory slog handler for asserting on logs.
//
// Integration tests run only when DATABASE_URL is set:
//
//	func TestSomething(t *testing.T) {
//	    db := testutils.GetTestDBWithT(t)
//	    testutils.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        users := postgres.NewPostgresUserStore(tx, bcrypt.MinCost, nil)
//	        // changes are rolled back when fn returns
//	    })
//	}
package testutils
