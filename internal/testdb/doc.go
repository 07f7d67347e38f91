// Package testdb provides helpers for Postgres integration tests.
//
// Tests get a migrated connection from GetTestDBWithT, which skips the test
// when DATABASE_URL is unset, and isolate their writes with WithTx, which
// rolls the transaction back when the test function returns:
//
//	func TestReviewFiles(t *testing.T) {
//	    db := testdb.GetTestDBWithT(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        reviewFiles := postgres.NewPostgresReviewFileStore(tx, nil)
//	        // ...
//	    })
//	}
package testdb
