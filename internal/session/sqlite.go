package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jortega/fuelwatch/internal/dbx"
	"github.com/jortega/fuelwatch/internal/models"
)

// SQLiteStore persists the session in a key/value blob table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func setEntry(ctx context.Context, tx dbx.DBTX, key string, value []byte) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set session[%s]: %w", key, err)
	}
	return nil
}

func getEntry(ctx context.Context, db dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session[%s]: %w", key, err)
	}
	return value, nil
}

// Save writes the token and the JSON-serialized profile in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, token string, user models.UserProfile) error {
	blob, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := setEntry(ctx, tx, keyAuthToken, []byte(token)); err != nil {
			return err
		}
		return setEntry(ctx, tx, keyUserProfile, blob)
	})
}

// Load returns the stored token and profile. A missing token, a missing
// profile, or a profile blob that fails to parse all yield empty values:
// Save is atomic, so a half-present pair means corruption and is treated as
// no session.
func (s *SQLiteStore) Load(ctx context.Context) (string, *models.UserProfile, error) {
	// Both rows are read in one transaction so a concurrent Save cannot
	// interleave between them and hand back a mismatched pair.
	var tok, blob []byte
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if tok, err = getEntry(ctx, tx, keyAuthToken); err != nil {
			return err
		}
		blob, err = getEntry(ctx, tx, keyUserProfile)
		return err
	})
	if err != nil {
		return "", nil, err
	}

	if len(tok) == 0 || len(blob) == 0 {
		return "", nil, nil
	}

	var user models.UserProfile
	if err := json.Unmarshal(blob, &user); err != nil {
		return "", nil, nil
	}
	return string(tok), &user, nil
}

// Clear removes both entries in one transaction.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM session WHERE key IN (?, ?)`, keyAuthToken, keyUserProfile)
		if err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	})
}
