package infra

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

const (
	// DefaultQuotesDir is where the engine installer places quote files.
	DefaultQuotesDir = "/usr/local/share/bliss/quotes"

	// FallbackQuote is used when no quote file yields a line.
	FallbackQuote = "Focus is a practice, not a mood."
)

// FileQuoteSource picks a random line from <dir>/<length>.txt, trying each
// directory in order.
type FileQuoteSource struct {
	dirs    []string
	homeDir string
	intn    func(n int) int
}

// NewFileQuoteSource creates a source over the given directories.
func NewFileQuoteSource(dirs ...string) *FileQuoteSource {
	home, _ := os.UserHomeDir()
	return &FileQuoteSource{dirs: dirs, homeDir: home, intn: rand.Intn}
}

// NewFileQuoteSourceWithRand creates a source with a fixed picker (for testing).
func NewFileQuoteSourceWithRand(intn func(n int) int, dirs ...string) *FileQuoteSource {
	s := NewFileQuoteSource(dirs...)
	s.intn = intn
	return s
}

// RandomQuote returns a random non-empty line, or FallbackQuote.
func (s *FileQuoteSource) RandomQuote(length domain.QuoteLength) string {
	if length == "" {
		length = domain.DefaultQuoteLength
	}
	for _, dir := range s.dirs {
		if dir == "" {
			continue
		}
		path := filepath.Join(ExpandHome(s.homeDir, dir), string(length)+".txt")
		lines := readQuoteLines(path)
		if len(lines) > 0 {
			return lines[s.intn(len(lines))]
		}
	}
	return FallbackQuote
}

// readQuoteLines returns trimmed non-empty lines, nil on any read error.
func readQuoteLines(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ExpandHome expands a leading ~ to home.
func ExpandHome(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		return home
	}
	return path
}

// Ensure FileQuoteSource implements domain.QuoteSource.
var _ domain.QuoteSource = (*FileQuoteSource)(nil)
