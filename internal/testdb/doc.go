//go:build integration

// Package testdb provides helpers for tests that run against a real
// PostgreSQL database.
//
// Each test runs inside a transaction that is rolled back when the test
// finishes, so tests need no cleanup and can run in parallel:
//
//	func TestStatsRoundTrip(t *testing.T) {
//	    db := testdb.Open(t)
//
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        stats := postgres.NewPostgresUserStatsStore(tx, logger.NewDiscard())
//	        ...
//	    })
//	}
//
// Tests are skipped when ADAPTIVE_TEST_DATABASE_URL (or DATABASE_URL) is unset.
// Open applies the embedded migrations once per process.
package testdb
