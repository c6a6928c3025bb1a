package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
	"github.com/Aman-CERP/docsync/internal/gateway"
	"github.com/Aman-CERP/docsync/internal/reconcile"
	"github.com/Aman-CERP/docsync/internal/ui"
	"github.com/Aman-CERP/docsync/pkg/version"
)

// ServerName is reported in the MCP implementation info.
const ServerName = "docsync"

// Search limits.
const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// Backend is what the server needs from a configured sync setup.
type Backend interface {
	Sync(ctx context.Context) (*reconcile.Report, error)
	DryRun(ctx context.Context) (*reconcile.ChangeSet, error)
	Status(ctx context.Context) (ui.StatusInfo, error)
	Search(ctx context.Context, query string, limit int) ([]gateway.Hit, error)
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        ToolSyncDocuments,
		Description: "Bring the document index in line with the data directory. Adds new documents, re-indexes modified ones and removes deleted ones. Set dry_run to list pending changes without applying them.",
	},
	{
		Name:        ToolSyncStatus,
		Description: "Report manifest and index sizes, the last sync pass, and how many documents are pending.",
	},
	{
		Name:        ToolSearchDocuments,
		Description: "Search the indexed documents. Use it to check that a document made it into the index.",
	},
}

// Server is the MCP server.
type Server struct {
	mcp     *mcp.Server
	backend Backend
	logger  *slog.Logger
}

// NewServer creates a server with every tool registered.
func NewServer(backend Backend, logger *slog.Logger) (*Server, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		backend: backend,
		logger:  logger,
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version.Short(),
	}, nil)
	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns the registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSyncHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpStatusHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpSearchHandler)
	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

// CallTool invokes a tool by name and returns its markdown rendering.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case ToolSyncDocuments:
		in := SyncInput{}
		if v, ok := args["dry_run"].(bool); ok {
			in.DryRun = v
		}
		out, err := s.sync(ctx, in)
		if err != nil {
			return "", err
		}
		return FormatSync(out), nil

	case ToolSyncStatus:
		out, err := s.status(ctx)
		if err != nil {
			return "", err
		}
		return FormatStatus(out), nil

	case ToolSearchDocuments:
		in := SearchInput{}
		in.Query, _ = args["query"].(string)
		if l, ok := args["limit"].(float64); ok {
			in.Limit = int(l)
		}
		out, err := s.search(ctx, in)
		if err != nil {
			return "", err
		}
		return FormatSearch(in.Query, out), nil

	default:
		return "", NewMethodNotFoundError(name)
	}
}

func (s *Server) sync(ctx context.Context, in SyncInput) (SyncOutput, error) {
	requestID := newRequestID()
	s.logger.Info("mcp_sync_started",
		slog.String("request_id", requestID),
		slog.Bool("dry_run", in.DryRun))

	if in.DryRun {
		cs, err := s.backend.DryRun(ctx)
		if err != nil {
			s.logFailure("mcp_sync_failed", requestID, err)
			return SyncOutput{}, MapError(err)
		}
		return toDryRunOutput(cs), nil
	}

	report, err := s.backend.Sync(ctx)
	if report == nil || errors.Is(err, docerrors.ErrPassInProgress) {
		if err == nil {
			err = docerrors.InternalError("sync returned no report", nil)
		}
		s.logFailure("mcp_sync_failed", requestID, err)
		return SyncOutput{}, MapError(err)
	}

	s.logger.Info("mcp_sync_completed",
		slog.String("request_id", requestID),
		slog.String("pass_id", report.ID),
		slog.String("status", report.Status.String()))
	return toSyncOutput(report), nil
}

func (s *Server) status(ctx context.Context) (StatusOutput, error) {
	info, err := s.backend.Status(ctx)
	if err != nil {
		s.logFailure("mcp_status_failed", newRequestID(), err)
		return StatusOutput{}, MapError(err)
	}
	return toStatusOutput(info), nil
}

func (s *Server) search(ctx context.Context, in SearchInput) (SearchOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return SearchOutput{}, NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}
	limit := clampLimit(in.Limit, defaultSearchLimit, 1, maxSearchLimit)

	requestID := newRequestID()
	start := time.Now()
	hits, err := s.backend.Search(ctx, query, limit)
	if err != nil {
		s.logFailure("mcp_search_failed", requestID, err)
		return SearchOutput{}, MapError(err)
	}

	s.logger.Info("mcp_search_completed",
		slog.String("request_id", requestID),
		slog.Int("limit", limit),
		slog.Int("result_count", len(hits)),
		slog.Duration("duration", time.Since(start)))
	return toSearchOutput(hits), nil
}

func (s *Server) logFailure(msg, requestID string, err error) {
	s.logger.Error(msg,
		slog.String("request_id", requestID),
		slog.String("error", err.Error()))
}

func (s *Server) mcpSyncHandler(ctx context.Context, _ *mcp.CallToolRequest, in SyncInput) (
	*mcp.CallToolResult,
	SyncOutput,
	error,
) {
	out, err := s.sync(ctx, in)
	if err != nil {
		return nil, SyncOutput{}, err
	}
	return textResult(FormatSync(out)), out, nil
}

func (s *Server) mcpStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (
	*mcp.CallToolResult,
	StatusOutput,
	error,
) {
	out, err := s.status(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return textResult(FormatStatus(out)), out, nil
}

func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	out, err := s.search(ctx, in)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	return textResult(FormatSearch(in.Query, out)), out, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// Serve runs the server on the given transport until ctx is done.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio", "":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

func clampLimit(limit, def, lo, hi int) int {
	if limit <= 0 {
		return def
	}
	return min(max(limit, lo), hi)
}

func newRequestID() string {
	return uuid.NewString()[:8]
}
