// Package progress estimates the progress of opaque external processes. The
// dump and restore tools expose no progress API, so completion is inferred
// from a growing output file or from keyword lines in a captured diagnostic
// stream, behind the Source seam so tests can feed canned input.
package progress

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// Source samples the work done so far. A total of zero or less means the
// total is unknown and ETA must display as unavailable.
type Source interface {
	Sample() (completed, total int64, err error)
}

// RestoreKeywords are the pg_restore verbose-output verbs counted as one
// completed work unit each.
var RestoreKeywords = []string{"creating", "processing", "restoring", "setting"}

// Default bounds for ETA display.
const (
	// DefaultWarmup is the minimum elapsed time before a rate is trusted.
	DefaultWarmup = 5 * time.Second
	// DefaultCeiling suppresses numerically unstable estimates.
	DefaultCeiling = 24 * time.Hour
)

// FileSizeSource reports the byte size of a growing file against an
// independently-queried total. A missing file samples as zero bytes.
type FileSizeSource struct {
	Path  string
	Total int64
}

func (s *FileSizeSource) Sample() (int64, int64, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, s.Total, nil
		}
		return 0, s.Total, fmt.Errorf("stat %q: %w", s.Path, err)
	}
	return info.Size(), s.Total, nil
}

// KeywordSource counts diagnostic-stream lines containing any of the known
// progress keywords. The stream file is re-scanned on every sample; restore
// polling is coarse enough that this stays cheap.
type KeywordSource struct {
	Path     string
	Total    int64
	Keywords []string
}

func (s *KeywordSource) Sample() (int64, int64, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, s.Total, nil
		}
		return 0, s.Total, fmt.Errorf("open %q: %w", s.Path, err)
	}
	defer file.Close()

	var count int64
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.ToLower(scanner.Text())
		for _, keyword := range s.Keywords {
			if strings.Contains(line, keyword) {
				count++
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return count, s.Total, fmt.Errorf("scan %q: %w", s.Path, err)
	}
	return count, s.Total, nil
}

// Snapshot is one transient progress observation. Never persisted; it lives
// only for the duration of one supervised operation.
type Snapshot struct {
	Completed int64
	Total     int64
	Elapsed   time.Duration
}

// Rate returns the average units per second since the operation started.
func (s Snapshot) Rate() float64 {
	if s.Elapsed <= 0 || s.Completed <= 0 {
		return 0
	}
	return float64(s.Completed) / s.Elapsed.Seconds()
}

// ETA estimates the remaining time. The second return is false whenever the
// estimate must display as unavailable: unknown total, nothing completed yet,
// zero observed rate, warm-up not yet elapsed, or an estimate beyond the
// ceiling.
func (s Snapshot) ETA(warmup, ceiling time.Duration) (time.Duration, bool) {
	if s.Elapsed < warmup {
		return 0, false
	}
	if s.Total <= 0 || s.Completed <= 0 || s.Completed >= s.Total {
		return 0, false
	}
	rate := s.Rate()
	if rate == 0 {
		return 0, false
	}
	eta := time.Duration(float64(s.Total-s.Completed) / rate * float64(time.Second))
	if ceiling > 0 && eta > ceiling {
		return 0, false
	}
	return eta, true
}
