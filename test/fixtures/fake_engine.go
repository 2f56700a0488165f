// Package fixtures provides test helpers for integration tests.
package fixtures

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// engineScript is a stateful stand-in for the bliss CLI. State lives in
// plain files under the state directory so the Go side can inspect it.
const engineScript = `#!/bin/sh
STATE=%q
mkdir -p "$STATE"
touch "$STATE/websites" "$STATE/apps" "$STATE/browsers"
[ -f "$STATE/quotes" ] || echo medium > "$STATE/quotes"

running() { [ -f "$STATE/session" ]; }
list() { if [ -s "$1" ]; then cat "$1"; else echo "no entries"; fi; }
locked() {
	if running; then
		echo "error: config is locked while a session is active" >&2
		exit 1
	fi
}

if [ -f "$STATE/helper_down" ]; then
	echo "error: unable to reach bliss root helper" >&2
	exit 1
fi

case "$1" in
status)
	if running; then
		echo "status: running"
		echo "ends at (epoch): $(cat "$STATE/session")"
		echo "remaining: 25m 0s"
		echo "pf table active: yes"
	else
		echo "status: not running"
		echo "remaining: -"
		echo "pf table active: no"
	fi
	;;
start)
	if running; then
		echo "error: session already running" >&2
		exit 1
	fi
	case "$2" in
	''|*[!0-9]*) echo "error: invalid minutes" >&2; exit 2 ;;
	esac
	if [ "$2" -le 0 ] || [ "$2" -gt 1440 ]; then
		echo "error: invalid minutes" >&2
		exit 2
	fi
	echo $(( $(date +%%s) + $2 * 60 )) > "$STATE/session"
	echo "session started"
	;;
panic)
	if [ "$2" != "--skip-challenge" ]; then
		echo "error: challenge required" >&2
		exit 1
	fi
	if ! running; then
		echo "error: no active session" >&2
		exit 1
	fi
	rm -f "$STATE/session"
	echo "session ended"
	;;
config)
	kind="$2"
	op="$3"
	shift 3
	case "$kind" in
	quotes)
		if [ "$op" = get ]; then
			echo "quotes: $(cat "$STATE/quotes")"
			exit 0
		fi
		locked
		echo "$op" > "$STATE/quotes"
		;;
	website|app|browser)
		file="$STATE/${kind}s"
		case "$op" in
		list) list "$file" ;;
		add)
			locked
			if [ "$kind" = app ]; then
				name=$(basename "$1" .app)
				echo "$name|bundle=com.example.$name|path=$1" >> "$file"
			else
				echo "$1" >> "$file"
			fi
			;;
		remove)
			locked
			if ! grep -qxF "$1" "$file"; then
				if [ "$kind" = app ]; then echo "error: app not found" >&2; else echo "error: entry not found" >&2; fi
				exit 1
			fi
			grep -vxF "$1" "$file" > "$file.tmp"
			mv "$file.tmp" "$file"
			;;
		esac
		;;
	esac
	;;
*)
	echo "unknown command: $1" >&2
	exit 64
	;;
esac
`

// FakeEngine installs a scripted engine executable in a directory.
type FakeEngine struct {
	Dir string
}

// NewFakeEngine creates a fake engine rooted at dir.
func NewFakeEngine(dir string) *FakeEngine {
	return &FakeEngine{Dir: dir}
}

// Path is the engine executable location.
func (f *FakeEngine) Path() string {
	return filepath.Join(f.Dir, "bliss")
}

// StateDir holds the engine's session and list files.
func (f *FakeEngine) StateDir() string {
	return filepath.Join(f.Dir, "state")
}

// EndTimePath is where a running session's end epoch is stored.
func (f *FakeEngine) EndTimePath() string {
	return filepath.Join(f.StateDir(), "session")
}

// Install writes the executable and an empty state directory.
func (f *FakeEngine) Install() error {
	if err := os.MkdirAll(f.StateDir(), 0755); err != nil {
		return err
	}
	script := fmt.Sprintf(engineScript, f.StateDir())
	return os.WriteFile(f.Path(), []byte(script), 0755)
}

// StartSession marks a session running until end, bypassing the CLI.
func (f *FakeEngine) StartSession(end time.Time) error {
	return os.WriteFile(f.EndTimePath(), []byte(strconv.FormatInt(end.Unix(), 10)+"\n"), 0644)
}

// EndSession clears any running session.
func (f *FakeEngine) EndSession() error {
	err := os.Remove(f.EndTimePath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// SessionRunning reports whether the engine considers a session active.
func (f *FakeEngine) SessionRunning() bool {
	_, err := os.Stat(f.EndTimePath())
	return err == nil
}

// SetHelperDown makes every command fail as if the root helper were gone.
func (f *FakeEngine) SetHelperDown(down bool) error {
	marker := filepath.Join(f.StateDir(), "helper_down")
	if down {
		return os.WriteFile(marker, nil, 0644)
	}
	err := os.Remove(marker)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Websites returns the stored website list.
func (f *FakeEngine) Websites() []string {
	return f.readList("websites")
}

// Apps returns the stored raw app lines.
func (f *FakeEngine) Apps() []string {
	return f.readList("apps")
}

// Browsers returns the stored browser list.
func (f *FakeEngine) Browsers() []string {
	return f.readList("browsers")
}

// QuoteLength returns the stored quote length.
func (f *FakeEngine) QuoteLength() string {
	data, err := os.ReadFile(filepath.Join(f.StateDir(), "quotes"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (f *FakeEngine) readList(name string) []string {
	file, err := os.Open(filepath.Join(f.StateDir(), name))
	if err != nil {
		return nil
	}
	defer file.Close()

	var items []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			items = append(items, line)
		}
	}
	return items
}
