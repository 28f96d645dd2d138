package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/mareasperez/pg-backup-restore/internal/logger"
)

// Unit selects how sampled counters are rendered.
type Unit int

const (
	UnitBytes Unit = iota
	UnitObjects
)

// Monitor supervises one external process: it polls the Source at Interval,
// prints a progress line per tick, and returns when the process's wait
// result arrives on done. The poll loop is the only point where the
// controller yields; cancellation is checked once per tick.
type Monitor struct {
	Source   Source
	Interval time.Duration
	Warmup   time.Duration
	Ceiling  time.Duration
	Label    string
	Unit     Unit
	Out      io.Writer
	Log      logger.Logger
}

// Watch blocks until done delivers the child's exit result or ctx is
// cancelled. It returns the value received from done, or ctx.Err().
func (m *Monitor) Watch(ctx context.Context, done <-chan error) error {
	ceiling := m.Ceiling
	if ceiling == 0 {
		ceiling = DefaultCeiling
	}

	start := time.Now()
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	var previous int64
	for {
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			completed, total, err := m.Source.Sample()
			if err != nil {
				m.Log.Warn("progress sample failed", "operation", m.Label, "error", err.Error())
				continue
			}
			snap := Snapshot{Completed: completed, Total: total, Elapsed: time.Since(start)}
			m.render(snap, completed-previous, ceiling)
			previous = completed
		}
	}
}

func (m *Monitor) render(snap Snapshot, delta int64, ceiling time.Duration) {
	line := FormatLine(m.Label, m.Unit, snap, delta, m.Warmup, ceiling)
	_, _ = color.New(color.FgCyan).Fprintln(m.Out, line)
	m.Log.Debug("progress",
		"operation", m.Label,
		"completed", snap.Completed,
		"total", snap.Total,
		"elapsed", snap.Elapsed.String(),
	)
}

// FormatLine renders one progress line. The "awaiting artifact creation"
// state (byte counter still at zero) is a first-class display condition.
func FormatLine(label string, unit Unit, snap Snapshot, delta int64, warmup, ceiling time.Duration) string {
	if unit == UnitBytes && snap.Completed == 0 {
		return fmt.Sprintf("%s: awaiting artifact creation (%s elapsed)", label, roundSeconds(snap.Elapsed))
	}

	var counter string
	switch unit {
	case UnitBytes:
		if snap.Total > 0 {
			counter = fmt.Sprintf("%s of %s (+%s)", formatBytes(snap.Completed), formatBytes(snap.Total), formatBytes(delta))
		} else {
			counter = fmt.Sprintf("%s written (+%s)", formatBytes(snap.Completed), formatBytes(delta))
		}
	default:
		if snap.Total > 0 {
			counter = fmt.Sprintf("%d of %d objects", snap.Completed, snap.Total)
		} else {
			counter = fmt.Sprintf("%d objects", snap.Completed)
		}
	}

	eta := "ETA unavailable"
	if remaining, ok := snap.ETA(warmup, ceiling); ok {
		eta = "ETA " + roundSeconds(remaining).String()
	}

	return fmt.Sprintf("%s: %s | %s | %s", label, counter, formatRate(unit, snap.Rate()), eta)
}

func formatRate(unit Unit, rate float64) string {
	if unit == UnitBytes {
		return formatBytes(int64(rate)) + "/s"
	}
	return fmt.Sprintf("%.1f objects/s", rate)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for q := n / unit; q >= unit; q /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func roundSeconds(d time.Duration) time.Duration {
	return d.Round(time.Second)
}
