package infra

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

const auditDBName = "audit.db"

// EncryptedAuditLog implements domain.AuditLog using a SQLCipher database.
type EncryptedAuditLog struct {
	db     *sql.DB
	dbPath string
}

// OpenAuditLog opens (or creates) the encrypted audit database in dataDir.
func OpenAuditLog(dataDir string, key []byte) (*EncryptedAuditLog, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, auditDBName)
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, hex.EncodeToString(key))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// A wrong key only surfaces on first access
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	log := &EncryptedAuditLog{db: db, dbPath: dbPath}
	if err := log.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return log, nil
}

// OpenAuditLogWithKeyProvider loads (or creates) the key and opens the log.
func OpenAuditLogWithKeyProvider(dataDir string, provider domain.KeyProvider) (*EncryptedAuditLog, error) {
	key, err := LoadOrCreateKey(provider)
	if err != nil {
		return nil, err
	}
	return OpenAuditLog(dataDir, key)
}

func (l *EncryptedAuditLog) migrate() error {
	_, err := l.db.Exec(`
	CREATE TABLE IF NOT EXISTS override_attempts (
		id TEXT PRIMARY KEY,
		at INTEGER NOT NULL,
		accuracy REAL NOT NULL,
		passed INTEGER NOT NULL,
		engine_called INTEGER NOT NULL,
		exit_code INTEGER NOT NULL,
		kind TEXT NOT NULL,
		succeeded INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_override_attempts_at ON override_attempts (at);
	`)
	return err
}

// Record stores one attempt, assigning an ID and timestamp when missing.
func (l *EncryptedAuditLog) Record(a domain.OverrideAttempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.At.IsZero() {
		a.At = time.Now()
	}
	_, err := l.db.Exec(`
		INSERT INTO override_attempts (id, at, accuracy, passed, engine_called, exit_code, kind, succeeded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.At.UnixNano(), a.Accuracy, a.Passed, a.EngineCalled, a.ExitCode, a.Kind.String(), a.Succeeded,
	)
	if err != nil {
		return fmt.Errorf("failed to record override attempt: %w", err)
	}
	return nil
}

// Recent returns up to limit attempts, newest first.
func (l *EncryptedAuditLog) Recent(limit int) ([]domain.OverrideAttempt, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.Query(`
		SELECT id, at, accuracy, passed, engine_called, exit_code, kind, succeeded
		FROM override_attempts ORDER BY at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []domain.OverrideAttempt
	for rows.Next() {
		var (
			a    domain.OverrideAttempt
			at   int64
			kind string
		)
		if err := rows.Scan(&a.ID, &at, &a.Accuracy, &a.Passed, &a.EngineCalled, &a.ExitCode, &kind, &a.Succeeded); err != nil {
			return nil, err
		}
		a.At = time.Unix(0, at)
		a.Kind = domain.ParseErrorKind(kind)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Path returns the database file path.
func (l *EncryptedAuditLog) Path() string {
	return l.dbPath
}

// Close releases the database connection.
func (l *EncryptedAuditLog) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Ensure EncryptedAuditLog implements domain.AuditLog.
var _ domain.AuditLog = (*EncryptedAuditLog)(nil)
