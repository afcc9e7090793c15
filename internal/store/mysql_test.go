package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

const testDSNEnv = "CATALOG_TEST_MYSQL_DSN"

// newTestDB connects to the database named by CATALOG_TEST_MYSQL_DSN and wipes
// catalog tables. Tests using it are skipped when the variable is unset.
func newTestDB(t *testing.T) *MYSQLStore {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", testDSNEnv)
	}

	db, err := New(context.Background(), Config{
		DSN:         dsn,
		Automigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx := context.Background()
	_, err = db.db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0")
	require.NoError(t, err)
	for _, table := range []string{
		"category_filter",
		"filter_option",
		"filter",
		"filter_group",
		"review",
		"product_characteristic",
		"variant_attribute",
		"product_variant",
		"product",
		"category",
	} {
		_, err = db.db.ExecContext(ctx, "DELETE FROM "+table)
		require.NoError(t, err)
	}
	_, err = db.db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
	require.NoError(t, err)

	return db
}

func exec(t *testing.T, db *MYSQLStore, query string, args ...any) {
	t.Helper()
	_, err := db.db.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}
