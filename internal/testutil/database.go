package testutil

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"

	"quickorder/internal/infrastructure/mysql"
)

// SetupTestDB opens the MySQL test database. It expects a server on
// localhost:3306 with a database named 'quickorder_test' and skips otherwise.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/quickorder_test?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.Ping()
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties the documents table and closes the connection.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	if _, err := db.Exec("DELETE FROM documents"); err != nil {
		t.Logf("failed to clean table documents: %v", err)
	}

	db.Close()
}

// SetupTestTables creates the documents table used by the MySQL document store.
func SetupTestTables(t *testing.T, db *sql.DB) {
	if err := mysql.EnsureSchema(context.Background(), db); err != nil {
		t.Logf("failed to create table documents: %v", err)
	}
}
