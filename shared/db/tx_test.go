package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE entries (id INTEGER PRIMARY KEY, value TEXT)`)
	if err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}

	return db
}

func countEntries(t *testing.T, db *sql.DB) int {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	return count
}

func insert(ctx context.Context, db *sql.DB, value string) error {
	_, err := GetExecutor(ctx, db).ExecContext(ctx, "INSERT INTO entries (value) VALUES (?)", value)
	return err
}

func TestRunInTransaction(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		fn        func(db *sql.DB) func(ctx context.Context) error
		wantErr   error
		wantCount int
	}{
		{
			name: "commit",
			fn: func(db *sql.DB) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					return insert(ctx, db, "one")
				}
			},
			wantCount: 1,
		},
		{
			name: "rollback",
			fn: func(db *sql.DB) func(ctx context.Context) error {
				return func(ctx context.Context) error {
					if err := insert(ctx, db, "one"); err != nil {
						return err
					}
					return errBoom
				}
			},
			wantErr:   errBoom,
			wantCount: 0,
		},
		{
			name: "nested commit shares the outer transaction",
			fn: func(db *sql.DB) func(ctx context.Context) error {
				return func(outer context.Context) error {
					if err := insert(outer, db, "outer"); err != nil {
						return err
					}
					return RunInTransaction(outer, db, func(inner context.Context) error {
						outerTx, _ := GetTx(outer)
						innerTx, _ := GetTx(inner)
						if outerTx != innerTx {
							return errors.New("nested call opened a new transaction")
						}
						return insert(inner, db, "inner")
					})
				}
			},
			wantCount: 2,
		},
		{
			name: "nested failure rolls back everything",
			fn: func(db *sql.DB) func(ctx context.Context) error {
				return func(outer context.Context) error {
					if err := insert(outer, db, "outer"); err != nil {
						return err
					}
					return RunInTransaction(outer, db, func(inner context.Context) error {
						if err := insert(inner, db, "inner"); err != nil {
							return err
						}
						return errBoom
					})
				}
			},
			wantErr:   errBoom,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)

			err := RunInTransaction(context.Background(), db, tt.fn(db))
			if tt.wantErr == nil && err != nil {
				t.Fatalf("RunInTransaction failed: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("RunInTransaction error = %v, want %v", err, tt.wantErr)
			}

			if got := countEntries(t, db); got != tt.wantCount {
				t.Errorf("Expected %d rows, got %d", tt.wantCount, got)
			}
		})
	}
}

func TestGetExecutor(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if executor := GetExecutor(ctx, db); executor != db {
		t.Error("Expected executor to be the database")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if executor := GetExecutor(WithTx(ctx, tx), db); executor != tx {
		t.Error("Expected executor to be the transaction")
	}
}
