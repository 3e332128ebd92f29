package testsupport

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-kvcms/internal/objectstore"
)

var dbSeq atomic.Int64

// NewObjectStoreDB opens a private in-memory sqlite database with the
// kv_objects table in place. The database is closed when the test ends.
func NewObjectStoreDB(t testing.TB) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:kvcms_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite %s: %v", dsn, err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := objectstore.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("ensure kv_objects: %v", err)
	}
	return db
}
