// Package testdb provides throwaway databases for the harness's own tests.
package testdb

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/kuitang/quiz-uitest/internal/db"
)

// NewUsersDBInMemory creates an encrypted in-memory database with the users
// table migrated. Each call gets its own database.
func NewUsersDBInMemory(ctx context.Context) (*db.DB, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate database key: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma_key=x'%s'&_pragma_cipher_page_size=4096",
		uuid.NewString(), hex.EncodeToString(key))

	sqlDB, err := sql.Open(db.SQLiteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory users database: %w", err)
	}

	// A single connection keeps the shared-cache database alive and avoids
	// table locks between pooled connections.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	var sqliteVersion string
	if err := sqlDB.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&sqliteVersion); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to verify in-memory users database: %w", err)
	}

	if err := applyFastSQLitePragmas(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to apply fast SQLite pragmas: %w", err)
	}

	usersDB := db.New(sqlDB, db.DialectSQLite)
	if err := usersDB.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate in-memory users database: %w", err)
	}
	return usersDB, nil
}

func applyFastSQLitePragmas(ctx context.Context, sqlDB *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=MEMORY",
		"PRAGMA synchronous=OFF",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA secure_delete=OFF",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, pragma); err != nil {
			return err
		}
	}
	return nil
}
