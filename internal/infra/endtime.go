package infra

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

// DefaultEndTimePath is where the engine writes the session end (epoch seconds).
const DefaultEndTimePath = "/var/db/bliss_end_time"

// FileEndTimeReader implements domain.EndTimeReader over the engine's file.
type FileEndTimeReader struct {
	path string
}

// NewFileEndTimeReader creates a reader for path.
func NewFileEndTimeReader(path string) *FileEndTimeReader {
	if path == "" {
		path = DefaultEndTimePath
	}
	return &FileEndTimeReader{path: path}
}

// Path returns the end-time file path.
func (r *FileEndTimeReader) Path() string {
	return r.path
}

// EndTime reads the file; missing or unparseable content yields false.
func (r *FileEndTimeReader) EndTime() (time.Time, bool) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return time.Time{}, false
	}
	epoch, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(epoch, 0), true
}

// Ensure FileEndTimeReader implements domain.EndTimeReader.
var _ domain.EndTimeReader = (*FileEndTimeReader)(nil)
