package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Aman-CERP/docsync/internal/history"
	"github.com/Aman-CERP/docsync/internal/reconcile"
)

// StatusInfo describes the synchronisation state of one data directory.
type StatusInfo struct {
	DataDir string `json:"data_dir"`
	Backend string `json:"backend"`

	ManifestPath    string `json:"manifest_path"`
	ManifestEntries int    `json:"manifest_entries"`
	ManifestSize    int64  `json:"manifest_size"`

	// IndexCount is -1 when the backend cannot count documents.
	IndexCount int   `json:"index_count"`
	IndexSize  int64 `json:"index_size"`

	LastPass *history.Pass        `json:"last_pass,omitempty"`
	Pending  *reconcile.ChangeSet `json:"pending,omitempty"`

	// RecentApplied holds applied-change counts of recent passes, oldest first.
	RecentApplied []int `json:"recent_applied,omitempty"`
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Sync Status: "+info.DataDir))

	_, _ = fmt.Fprintln(r.out, "  Manifest:")
	_, _ = fmt.Fprintf(r.out, "    Path:    %s\n", info.ManifestPath)
	_, _ = fmt.Fprintf(r.out, "    Entries: %d\n", info.ManifestEntries)
	_, _ = fmt.Fprintf(r.out, "    Size:    %s\n", FormatBytes(info.ManifestSize))
	_, _ = fmt.Fprintln(r.out)

	_, _ = fmt.Fprintln(r.out, "  Index:")
	_, _ = fmt.Fprintf(r.out, "    Backend:   %s\n", info.Backend)
	if info.IndexCount >= 0 {
		_, _ = fmt.Fprintf(r.out, "    Documents: %d\n", info.IndexCount)
	} else {
		_, _ = fmt.Fprintf(r.out, "    Documents: %s\n", r.styles.Dim.Render("n/a"))
	}
	_, _ = fmt.Fprintf(r.out, "    Size:      %s\n", FormatBytes(info.IndexSize))
	_, _ = fmt.Fprintln(r.out)

	if p := info.LastPass; p != nil {
		_, _ = fmt.Fprintln(r.out, "  Last pass:")
		_, _ = fmt.Fprintf(r.out, "    Status:  %s (%s)\n", r.renderStatus(p.Status), formatTime(p.StartedAt))
		_, _ = fmt.Fprintf(r.out, "    Changes: %d added, %d modified, %d deleted\n", p.Added, p.Modified, p.Deleted)
		if len(p.Failures) > 0 {
			_, _ = fmt.Fprintf(r.out, "    Failed:  %s\n", r.styles.Warning.Render(fmt.Sprint(len(p.Failures))))
		}
		if p.Error != "" {
			_, _ = fmt.Fprintf(r.out, "    Error:   %s\n", r.styles.Error.Render(p.Error))
		}
		if len(info.RecentApplied) > 1 {
			values := make([]float64, len(info.RecentApplied))
			for i, n := range info.RecentApplied {
				values[i] = float64(n)
			}
			_, _ = fmt.Fprintf(r.out, "    History: %s\n", r.styles.Sparkline.Render(Sparkline(values, 40)))
		}
	} else {
		_, _ = fmt.Fprintf(r.out, "  Last pass: %s\n", r.styles.Dim.Render("never"))
	}

	if cs := info.Pending; cs != nil {
		_, _ = fmt.Fprintln(r.out)
		if cs.Empty() {
			_, _ = fmt.Fprintf(r.out, "  Pending: %s\n", r.styles.Success.Render("up to date"))
		} else {
			_, _ = fmt.Fprintf(r.out, "  Pending: %s, %s, %s\n",
				r.styles.Added.Render(fmt.Sprintf("+%d", len(cs.Added))),
				r.styles.Modified.Render(fmt.Sprintf("~%d", len(cs.Modified))),
				r.styles.Deleted.Render(fmt.Sprintf("-%d", len(cs.Deleted))))
		}
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func (r *StatusRenderer) renderStatus(status string) string {
	switch status {
	case reconcile.StateDone.String():
		return r.styles.Success.Render(status)
	case reconcile.StateFailed.String():
		return r.styles.Error.Render(status)
	default:
		return r.styles.Warning.Render(status)
	}
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
