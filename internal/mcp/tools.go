package mcp

import (
	"time"

	"github.com/Aman-CERP/docsync/internal/gateway"
	"github.com/Aman-CERP/docsync/internal/history"
	"github.com/Aman-CERP/docsync/internal/reconcile"
	"github.com/Aman-CERP/docsync/internal/ui"
)

// Tool names.
const (
	ToolSyncDocuments   = "sync_documents"
	ToolSyncStatus      = "sync_status"
	ToolSearchDocuments = "search_documents"
)

// SyncInput is the input of sync_documents.
type SyncInput struct {
	DryRun bool `json:"dry_run,omitempty" jsonschema:"report pending changes without applying them"`
}

// SyncOutput is the output of sync_documents.
type SyncOutput struct {
	PassID     string          `json:"pass_id,omitempty" jsonschema:"identifier of the pass, empty for dry runs"`
	Status     string          `json:"status" jsonschema:"DONE, FAILED, or PENDING for dry runs"`
	Added      int             `json:"added"`
	Modified   int             `json:"modified"`
	Deleted    int             `json:"deleted"`
	Unchanged  int             `json:"unchanged"`
	Failures   []FailureOutput `json:"failures" jsonschema:"documents retried on the next pass"`
	DurationMS int64           `json:"duration_ms"`
	Error      string          `json:"error,omitempty"`
	Changes    *ChangesOutput  `json:"changes,omitempty" jsonschema:"pending identities, dry runs only"`
}

// FailureOutput is one document that could not be applied.
type FailureOutput struct {
	Identity string `json:"identity"`
	Op       string `json:"op"`
	Error    string `json:"error"`
}

// ChangesOutput lists pending identities.
type ChangesOutput struct {
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Deleted  []string `json:"deleted"`
}

// StatusInput is the input of sync_status (no parameters).
type StatusInput struct{}

// StatusOutput is the output of sync_status.
type StatusOutput struct {
	DataDir         string         `json:"data_dir"`
	Backend         string         `json:"backend"`
	ManifestPath    string         `json:"manifest_path"`
	ManifestEntries int            `json:"manifest_entries"`
	ManifestSize    int64          `json:"manifest_size_bytes"`
	IndexCount      int            `json:"index_count" jsonschema:"documents in the index, -1 when unknown"`
	IndexSize       int64          `json:"index_size_bytes"`
	LastPass        *PassOutput    `json:"last_pass,omitempty"`
	Pending         *PendingOutput `json:"pending,omitempty" jsonschema:"absent when the data directory is missing"`
}

// PassOutput summarises a recorded pass.
type PassOutput struct {
	ID         string `json:"id"`
	StartedAt  string `json:"started_at" jsonschema:"RFC 3339 timestamp"`
	Status     string `json:"status"`
	Added      int    `json:"added"`
	Modified   int    `json:"modified"`
	Deleted    int    `json:"deleted"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// PendingOutput counts changes the next pass would apply.
type PendingOutput struct {
	Added     int `json:"added"`
	Modified  int `json:"modified"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
}

// SearchInput is the input of search_documents.
type SearchInput struct {
	Query string `json:"query" jsonschema:"the search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10, max 50"`
}

// SearchOutput is the output of search_documents.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
}

// SearchResultOutput is one hit.
type SearchResultOutput struct {
	Identity   string  `json:"identity" jsonschema:"document path relative to the data directory"`
	Score      float64 `json:"score"`
	SourcePath string  `json:"source_path,omitempty"`
	FileType   string  `json:"file_type,omitempty"`
}

func toSyncOutput(r *reconcile.Report) SyncOutput {
	out := SyncOutput{
		PassID:     r.ID,
		Status:     r.Status.String(),
		Added:      r.Added,
		Modified:   r.Modified,
		Deleted:    r.Deleted,
		Unchanged:  r.Unchanged,
		Failures:   make([]FailureOutput, 0, len(r.Failures)),
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	for _, f := range r.Failures {
		fo := FailureOutput{Identity: f.Identity, Op: f.Op}
		if f.Err != nil {
			fo.Error = f.Err.Error()
		}
		out.Failures = append(out.Failures, fo)
	}
	return out
}

func toDryRunOutput(cs *reconcile.ChangeSet) SyncOutput {
	return SyncOutput{
		Status:    "PENDING",
		Added:     len(cs.Added),
		Modified:  len(cs.Modified),
		Deleted:   len(cs.Deleted),
		Unchanged: len(cs.Unchanged),
		Failures:  []FailureOutput{},
		Changes: &ChangesOutput{
			Added:    nonNil(cs.Added),
			Modified: nonNil(cs.Modified),
			Deleted:  nonNil(cs.Deleted),
		},
	}
}

func toStatusOutput(info ui.StatusInfo) StatusOutput {
	out := StatusOutput{
		DataDir:         info.DataDir,
		Backend:         info.Backend,
		ManifestPath:    info.ManifestPath,
		ManifestEntries: info.ManifestEntries,
		ManifestSize:    info.ManifestSize,
		IndexCount:      info.IndexCount,
		IndexSize:       info.IndexSize,
	}
	if p := info.LastPass; p != nil {
		out.LastPass = toPassOutput(p)
	}
	if cs := info.Pending; cs != nil {
		out.Pending = &PendingOutput{
			Added:     len(cs.Added),
			Modified:  len(cs.Modified),
			Deleted:   len(cs.Deleted),
			Unchanged: len(cs.Unchanged),
		}
	}
	return out
}

func toPassOutput(p *history.Pass) *PassOutput {
	return &PassOutput{
		ID:         p.ID,
		StartedAt:  p.StartedAt.UTC().Format(time.RFC3339),
		Status:     p.Status,
		Added:      p.Added,
		Modified:   p.Modified,
		Deleted:    p.Deleted,
		Failed:     len(p.Failures),
		DurationMS: p.Duration.Milliseconds(),
		Error:      p.Error,
	}
}

func toSearchOutput(hits []gateway.Hit) SearchOutput {
	out := SearchOutput{Results: make([]SearchResultOutput, 0, len(hits))}
	for _, h := range hits {
		out.Results = append(out.Results, SearchResultOutput{
			Identity:   h.Identity,
			Score:      h.Score,
			SourcePath: h.Metadata.SourcePath(),
			FileType:   h.Metadata.FileType,
		})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
