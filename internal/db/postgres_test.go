package db

import (
	"os"
	"testing"
)

func TestOpen_InvalidDSN(t *testing.T) {
	for _, dsn := range []string{"", "invalid-dsn", "://localhost/test"} {
		db, err := Open(dsn)
		if err == nil {
			if db != nil {
				db.Close()
			}
			t.Errorf("Open(%q) should return error", dsn)
			continue
		}
		if db != nil {
			t.Errorf("Open(%q) should return nil db on error", dsn)
		}
	}
}

func TestOpen_Success(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := Open(dsn)
	if err != nil {
		t.Skipf("database connection failed: %v", err)
	}
	defer db.Close()

	var result int
	if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
		t.Errorf("should be able to query database: %v", err)
	}
}
