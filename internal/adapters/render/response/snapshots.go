package response

import (
	"fmt"
	"math"
	"time"

	"github.com/bnema/finagents/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// SnapshotStatus describes one cached snapshot kind for a ticker. A zero
// AsOf means nothing is cached.
type SnapshotStatus struct {
	Kind domain.SnapshotKind
	AsOf time.Time
}

type SnapshotOptions struct {
	Ticker domain.Ticker
	Now    time.Time
	MaxAge time.Duration
}

func RenderSnapshots(rows []SnapshotStatus, opts SnapshotOptions) (string, error) {
	return run(func(s styles) string {
		return renderSnapshots(rows, opts, s)
	})
}

func renderSnapshots(rows []SnapshotStatus, opts SnapshotOptions, s styles) string {
	lines := []string{
		s.title.Render(fmt.Sprintf("Cached data for %s", opts.Ticker)),
		s.header.Render(fmt.Sprintf("max age: %s", opts.MaxAge)),
	}

	for _, row := range rows {
		label := s.kindLabel.Render(fmt.Sprintf("%-8s", row.Kind))
		if row.AsOf.IsZero() {
			lines = append(lines, label+" "+s.empty.Render("not cached"))
			continue
		}

		line := label + " " + s.detail.Render(fmt.Sprintf("fetched %s (%s)", row.AsOf.UTC().Format("2006-01-02 15:04 MST"), formatAge(row.AsOf, opts.Now)))
		if (domain.Snapshot[struct{}]{AsOf: row.AsOf}).IsStale(opts.Now, opts.MaxAge) {
			line += " " + s.warning.Render("[stale]")
		} else {
			line += " " + s.freshLabel.Render("[fresh]")
		}
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatAge(asOf, now time.Time) string {
	if now.IsZero() || !now.After(asOf) {
		return "just now"
	}

	age := now.Sub(asOf)
	if age < time.Hour {
		minutes := int(math.Max(1, math.Floor(age.Minutes())))
		return plural(minutes, "minute") + " ago"
	}
	if age < 48*time.Hour {
		return plural(int(math.Floor(age.Hours())), "hour") + " ago"
	}
	return plural(int(math.Floor(age.Hours()/24)), "day") + " ago"
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
