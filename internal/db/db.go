package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"inflow/internal/models"
	_ "modernc.org/sqlite"
)

// SettingsStore is the Config Store seen by the panel, the options panel and the relay.
// Readers call LoadSettings every time they need a value instead of caching.
type SettingsStore interface {
	LoadSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, s models.Settings) error
}

func OpenInflowDB(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA busy_timeout = 5000;`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return db, nil
}

// Store is the sqlite-backed SettingsStore.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func GetValues(ctx context.Context, db *sql.DB, keys []string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}

	values := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		if wanted[k] {
			values[k] = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// SetValues writes every key in one transaction.
func SetValues(ctx context.Context, db *sql.DB, values map[string]string, nowUnix int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO settings(key, value, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for k, v := range values {
		if _, err := stmt.ExecContext(ctx, k, v, nowUnix); err != nil {
			return fmt.Errorf("write %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *Store) LoadSettings(ctx context.Context) (models.Settings, error) {
	values, err := GetValues(ctx, s.db, models.SettingsKeys)
	if err != nil {
		return models.Settings{}, err
	}
	return DecodeSettings(values), nil
}

func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	values, err := EncodeSettings(settings)
	if err != nil {
		return err
	}
	return SetValues(ctx, s.db, values, time.Now().Unix())
}

// DecodeSettings turns raw JSON values into Settings. Missing or unreadable
// entries keep their default.
func DecodeSettings(values map[string]string) models.Settings {
	s := models.DefaultSettings()

	var str string
	if decode(values, models.KeyProvider, &str) && str != "" {
		s.Provider = models.Provider(str)
	}
	str = ""
	if decode(values, models.KeyBaseURL, &str) {
		s.BaseURL = str
	}
	str = ""
	if decode(values, models.KeyPanelPosition, &str) && str != "" {
		s.PanelPosition = models.PanelPosition(str)
	}
	str = ""
	if decode(values, models.KeyInvocationMethod, &str) && str != "" {
		s.InvocationMethod = models.InvocationMethod(str)
	}

	var keys map[models.Provider]string
	if decode(values, models.KeyAPIKeys, &keys) && keys != nil {
		s.APIKeys = keys
	}
	var mdls map[models.Provider]string
	if decode(values, models.KeyAPIModels, &mdls) && mdls != nil {
		s.APIModels = mdls
	}
	return s
}

func decode(values map[string]string, key string, dst any) bool {
	raw, ok := values[key]
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), dst) == nil
}

// EncodeSettings is the inverse of DecodeSettings.
func EncodeSettings(s models.Settings) (map[string]string, error) {
	fields := map[string]any{
		models.KeyProvider:         string(s.Provider),
		models.KeyAPIKeys:          nonNil(s.APIKeys),
		models.KeyAPIModels:        nonNil(s.APIModels),
		models.KeyBaseURL:          s.BaseURL,
		models.KeyPanelPosition:    string(s.PanelPosition),
		models.KeyInvocationMethod: string(s.InvocationMethod),
	}
	values := make(map[string]string, len(fields))
	for k, v := range fields {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		values[k] = string(b)
	}
	return values, nil
}

func nonNil(m map[models.Provider]string) map[models.Provider]string {
	if m == nil {
		return map[models.Provider]string{}
	}
	return m
}
