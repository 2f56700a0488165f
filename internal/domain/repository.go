package domain

import "time"

// EngineClient runs the external engine with an argument vector.
// Implementation: os/exec subprocess. It never returns an error: a launch
// failure is reported as a synthetic CommandOutcome.
type EngineClient interface {
	// Run blocks until the subprocess exits and its output is read.
	Run(args ...string) CommandOutcome

	// ExecutablePath returns the resolved engine path.
	ExecutablePath() string
}

// ProcessManager handles OS process lookups.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// FindByName returns PIDs of processes matching the pattern.
	FindByName(pattern string) ([]int, error)

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool
}

// AuditLog records challenge submits.
// Implementation: SQLCipher encrypted database.
type AuditLog interface {
	// Record stores one attempt.
	Record(attempt OverrideAttempt) error

	// Recent returns up to limit attempts, newest first.
	Recent(limit int) ([]OverrideAttempt, error)

	// Close releases resources (e.g., database connection).
	Close() error
}

// KeyProvider abstracts the source of encryption keys.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool
}

// QuoteSource picks the prompt shown by the challenge gate.
type QuoteSource interface {
	// RandomQuote returns a random line for the given length.
	RandomQuote(length QuoteLength) string
}

// EndTimeReader reads the session end written by the engine.
type EndTimeReader interface {
	// EndTime returns the end time, or false if absent or unparseable.
	EndTime() (time.Time, bool)

	// Path returns the watched file path.
	Path() string
}
