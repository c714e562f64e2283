package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/grepmcp/grepmcp/internal/config"
	"github.com/grepmcp/grepmcp/internal/history"
	"github.com/grepmcp/grepmcp/internal/search"
	"github.com/grepmcp/grepmcp/pkg/version"
)

// serverName identifies this implementation to MCP clients.
const serverName = "grepmcp"

// Server is the MCP server for grepmcp. It exposes the two search tools
// over a transport and maps search failures onto JSON-RPC errors.
type Server struct {
	mcp      *mcp.Server
	searcher *search.Searcher
	config   *config.Config
	history  *history.Store
	logger   *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// FileSearchInput defines the input schema for search_keyword_in_file.
type FileSearchInput struct {
	FilePath      string `json:"file_path" jsonschema:"path to the file to search"`
	Keyword       string `json:"keyword" jsonschema:"keyword to search for, must be non-empty"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" jsonschema:"match case exactly, default false"`
	ContextLines  *int   `json:"context_lines,omitempty" jsonschema:"lines of context around each match, default 2"`
}

// FileSearchOutput defines the output schema for search_keyword_in_file.
type FileSearchOutput struct {
	Report     string `json:"report" jsonschema:"human-readable search report"`
	FilePath   string `json:"file_path" jsonschema:"the searched file path"`
	MatchCount int    `json:"match_count" jsonschema:"number of matching lines"`
}

// DirectorySearchInput defines the input schema for search_keyword_in_directory.
type DirectorySearchInput struct {
	DirectoryPath string `json:"directory_path" jsonschema:"path to the directory to search recursively"`
	Keyword       string `json:"keyword" jsonschema:"keyword to search for, must be non-empty"`
	FilePattern   string `json:"file_pattern,omitempty" jsonschema:"only search files whose name ends with this suffix, e.g. .py"`
	CaseSensitive bool   `json:"case_sensitive,omitempty" jsonschema:"match case exactly, default false"`
}

// DirectorySearchOutput defines the output schema for search_keyword_in_directory.
type DirectorySearchOutput struct {
	Report       string `json:"report" jsonschema:"human-readable search report"`
	TotalMatches int    `json:"total_matches" jsonschema:"sum of matches across all files"`
	FileCount    int    `json:"file_count" jsonschema:"number of files with at least one match"`
}

// NewServer creates a new MCP server around a searcher. A nil config gets
// defaults; a nil history store disables recording.
func NewServer(searcher *search.Searcher, cfg *config.Config, hist *history.Store) (*Server, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		searcher: searcher,
		config:   cfg,
		history:  hist,
		logger:   slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return serverName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "search_keyword_in_file",
			Description: fileToolDescription,
		},
		{
			Name:        "search_keyword_in_directory",
			Description: directoryToolDescription,
		},
	}
}

const fileToolDescription = "Search a single file for lines containing a keyword. " +
	"Each match is returned with surrounding context lines so you can judge relevance " +
	"without opening the file. Matching is plain substring containment, case-insensitive " +
	"unless case_sensitive is set."

const directoryToolDescription = "Recursively search a directory tree for lines containing " +
	"a keyword. Only text files are searched: pass file_pattern to restrict by filename " +
	"suffix (e.g. '.py'), or omit it to use the built-in text extension allow-list. " +
	"Matching lines are reported per file without context lines. Unreadable files are " +
	"skipped, so results may be partial on trees with permission restrictions."

// registerTools registers both search tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_keyword_in_file",
		Description: fileToolDescription,
	}, s.fileSearchHandler)
	s.logger.Debug("Registered tool", slog.String("name", "search_keyword_in_file"))

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search_keyword_in_directory",
		Description: directoryToolDescription,
	}, s.directorySearchHandler)
	s.logger.Debug("Registered tool", slog.String("name", "search_keyword_in_directory"))

	s.logger.Info("MCP tools registered", slog.Int("count", 2))
}

// fileSearchHandler is the MCP SDK handler for search_keyword_in_file.
func (s *Server) fileSearchHandler(_ context.Context, _ *mcp.CallToolRequest, input FileSearchInput) (
	*mcp.CallToolResult,
	FileSearchOutput,
	error,
) {
	start := time.Now()
	requestID := generateRequestID()

	contextLines := s.config.Search.ContextLinesOrDefault()
	if input.ContextLines != nil {
		contextLines = *input.ContextLines
	}

	s.logger.Info("file search started",
		slog.String("request_id", requestID),
		slog.String("file_path", input.FilePath),
		slog.String("keyword", input.Keyword),
		slog.Bool("case_sensitive", input.CaseSensitive),
		slog.Int("context_lines", contextLines))

	result, err := s.searcher.SearchFile(input.FilePath, input.Keyword, search.FileOptions{
		CaseSensitive: input.CaseSensitive,
		ContextLines:  contextLines,
	})
	duration := time.Since(start)

	if err != nil {
		mapped := MapError(err)
		s.logger.Error("file search failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.Int("code", mapped.Code),
			slog.String("error", err.Error()))
		return nil, FileSearchOutput{}, mapped
	}

	s.logger.Info("file search completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("match_count", result.MatchCount))

	s.record(history.Record{
		Operation:     history.OpFile,
		Target:        input.FilePath,
		Keyword:       input.Keyword,
		CaseSensitive: input.CaseSensitive,
		ContextLines:  contextLines,
		MatchCount:    result.MatchCount,
		FileCount:     1,
		DurationMS:    duration.Milliseconds(),
	})

	report := search.FormatFileResult(result, input.Keyword)
	output := FileSearchOutput{
		Report:     report,
		FilePath:   result.FilePath,
		MatchCount: result.MatchCount,
	}
	return textResult(report), output, nil
}

// directorySearchHandler is the MCP SDK handler for search_keyword_in_directory.
func (s *Server) directorySearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input DirectorySearchInput) (
	*mcp.CallToolResult,
	DirectorySearchOutput,
	error,
) {
	start := time.Now()
	requestID := generateRequestID()

	s.logger.Info("directory search started",
		slog.String("request_id", requestID),
		slog.String("directory_path", input.DirectoryPath),
		slog.String("keyword", input.Keyword),
		slog.String("file_pattern", input.FilePattern),
		slog.Bool("case_sensitive", input.CaseSensitive))

	result, err := s.searcher.SearchDirectory(ctx, input.DirectoryPath, input.Keyword, search.DirectoryOptions{
		CaseSensitive: input.CaseSensitive,
		FilePattern:   input.FilePattern,
		Extensions:    s.config.Search.TextExtensions,
	})
	duration := time.Since(start)

	if err != nil {
		mapped := MapError(err)
		s.logger.Error("directory search failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.Int("code", mapped.Code),
			slog.String("error", err.Error()))
		return nil, DirectorySearchOutput{}, mapped
	}

	s.logger.Info("directory search completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("total_matches", result.TotalMatches),
		slog.Int("file_count", len(result.Files)),
		slog.Int("skipped", len(result.Skipped)))

	s.record(history.Record{
		Operation:     history.OpDirectory,
		Target:        input.DirectoryPath,
		Keyword:       input.Keyword,
		CaseSensitive: input.CaseSensitive,
		FilePattern:   input.FilePattern,
		MatchCount:    result.TotalMatches,
		FileCount:     len(result.Files),
		DurationMS:    duration.Milliseconds(),
	})

	report := search.FormatDirectoryResult(result, input.Keyword)
	output := DirectorySearchOutput{
		Report:       report,
		TotalMatches: result.TotalMatches,
		FileCount:    len(result.Files),
	}
	return textResult(report), output, nil
}

// record writes a history entry if recording is enabled. Failures are
// logged at debug level and never surfaced to the tool caller.
func (s *Server) record(r history.Record) {
	if s.history == nil {
		return
	}
	if err := s.history.Add(r); err != nil {
		s.logger.Debug("history record failed", slog.String("error", err.Error()))
	}
}

// textResult wraps a report string as MCP text content.
func textResult(report string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: report}},
	}
}

// Serve starts the server with the specified transport.
// Stdout carries JSON-RPC exclusively while serving; callers must route
// logging to a file before this point (logging.SetupMCPMode).
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server",
		slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
