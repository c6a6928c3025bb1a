package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/Aman-CERP/docsync/internal/ui"
)

// FormatSync formats a sync or dry-run result as markdown.
func FormatSync(out SyncOutput) string {
	var sb strings.Builder

	if out.Changes != nil {
		sb.WriteString("## Pending Changes\n\n")
		if out.Added+out.Modified+out.Deleted == 0 {
			sb.WriteString(fmt.Sprintf("Index is up to date (%d unchanged).\n", out.Unchanged))
			return sb.String()
		}
		sb.WriteString(fmt.Sprintf("%d to add, %d to modify, %d to delete, %d unchanged\n",
			out.Added, out.Modified, out.Deleted, out.Unchanged))
		writeIdentities(&sb, "Add", out.Changes.Added)
		writeIdentities(&sb, "Modify", out.Changes.Modified)
		writeIdentities(&sb, "Delete", out.Changes.Deleted)
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("## Sync %s\n\n", out.Status))
	if out.PassID != "" {
		sb.WriteString(fmt.Sprintf("**Pass:** `%s`\n", out.PassID))
	}
	sb.WriteString(fmt.Sprintf("**Duration:** %s\n\n", time.Duration(out.DurationMS)*time.Millisecond))
	sb.WriteString(fmt.Sprintf("%d added, %d modified, %d deleted, %d unchanged\n",
		out.Added, out.Modified, out.Deleted, out.Unchanged))

	if len(out.Failures) > 0 {
		sb.WriteString(fmt.Sprintf("\n### Failures (%d)\n\n", len(out.Failures)))
		sb.WriteString("These documents will be retried on the next pass.\n\n")
		for _, f := range out.Failures {
			sb.WriteString(fmt.Sprintf("- `%s` (%s): %s\n", f.Identity, f.Op, f.Error))
		}
	}
	if out.Error != "" {
		sb.WriteString(fmt.Sprintf("\n**Error:** %s\n", out.Error))
	}
	return sb.String()
}

func writeIdentities(sb *strings.Builder, title string, ids []string) {
	if len(ids) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n### %s\n\n", title))
	for _, id := range ids {
		sb.WriteString(fmt.Sprintf("- `%s`\n", id))
	}
}

// FormatStatus formats sync status as markdown.
func FormatStatus(out StatusOutput) string {
	var sb strings.Builder

	sb.WriteString("## Sync Status\n\n")
	sb.WriteString(fmt.Sprintf("**Data directory:** `%s`\n", out.DataDir))
	sb.WriteString(fmt.Sprintf("**Backend:** %s\n\n", out.Backend))

	sb.WriteString("### Manifest\n\n")
	sb.WriteString(fmt.Sprintf("- Path: `%s`\n", out.ManifestPath))
	sb.WriteString(fmt.Sprintf("- Entries: %d\n", out.ManifestEntries))
	sb.WriteString(fmt.Sprintf("- Size: %s\n\n", ui.FormatBytes(out.ManifestSize)))

	sb.WriteString("### Index\n\n")
	if out.IndexCount >= 0 {
		sb.WriteString(fmt.Sprintf("- Documents: %d\n", out.IndexCount))
	} else {
		sb.WriteString("- Documents: unknown\n")
	}
	sb.WriteString(fmt.Sprintf("- Size: %s\n", ui.FormatBytes(out.IndexSize)))

	if p := out.LastPass; p != nil {
		sb.WriteString("\n### Last Pass\n\n")
		sb.WriteString(fmt.Sprintf("- %s at %s (%s)\n", p.Status, p.StartedAt,
			time.Duration(p.DurationMS)*time.Millisecond))
		sb.WriteString(fmt.Sprintf("- %d added, %d modified, %d deleted, %d failed\n",
			p.Added, p.Modified, p.Deleted, p.Failed))
		if p.Error != "" {
			sb.WriteString(fmt.Sprintf("- Error: %s\n", p.Error))
		}
	}

	sb.WriteString("\n### Pending\n\n")
	switch p := out.Pending; {
	case p == nil:
		sb.WriteString("Data directory not found.\n")
	case p.Added+p.Modified+p.Deleted == 0:
		sb.WriteString("Up to date.\n")
	default:
		sb.WriteString(fmt.Sprintf("%d to add, %d to modify, %d to delete\n", p.Added, p.Modified, p.Deleted))
	}
	return sb.String()
}

// FormatSearch formats search results as markdown.
func FormatSearch(query string, out SearchOutput) string {
	if len(out.Results) == 0 {
		return fmt.Sprintf("No results found for \"%s\"", query)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\"\n\n", query))
	sb.WriteString(fmt.Sprintf("Found %d result", len(out.Results)))
	if len(out.Results) != 1 {
		sb.WriteString("s")
	}
	sb.WriteString("\n\n")

	for i, r := range out.Results {
		sb.WriteString(fmt.Sprintf("%d. `%s` (score %.2f)", i+1, r.Identity, r.Score))
		if r.FileType != "" {
			sb.WriteString(fmt.Sprintf(" [%s]", r.FileType))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
