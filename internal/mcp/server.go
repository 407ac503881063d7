package mcp

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cmos-dev/cmoskb/internal/index"
	"github.com/cmos-dev/cmoskb/internal/recall"
	"github.com/cmos-dev/cmoskb/internal/search"
	"github.com/cmos-dev/cmoskb/internal/store"
	"github.com/cmos-dev/cmoskb/pkg/retriever"
	"github.com/cmos-dev/cmoskb/pkg/version"
)

// Deps are the engine parts the server drives.
type Deps struct {
	Store   *store.Store
	Indexer *index.Indexer
	Engine  *search.Engine
	Recall  *recall.Cache
	Root    string // absolute knowledge base root

	SearchLimit int
	RecallLimit int
}

// Server is the MCP server. kb_search queries the FTS index and falls
// back to recall when the index is unusable.
type Server struct {
	mcp       *mcp.Server
	deps      Deps
	retriever retriever.Retriever
	logger    *slog.Logger

	// serializes kb_index runs
	indexMu sync.Mutex
}

// NewServer validates deps and registers the tools.
func NewServer(deps Deps) (*Server, error) {
	if deps.Store == nil || deps.Indexer == nil {
		return nil, errors.New("store and indexer are required")
	}
	if deps.Root == "" {
		return nil, errors.New("knowledge base root is required")
	}
	if deps.SearchLimit <= 0 {
		deps.SearchLimit = search.DefaultLimit
	}
	if deps.RecallLimit <= 0 {
		deps.RecallLimit = recall.DefaultLimit
	}

	primary, err := retriever.FromEngine(deps.Engine)
	if err != nil {
		return nil, err
	}
	secondary, err := retriever.FromRecall(deps.Recall, deps.Root)
	if err != nil {
		return nil, err
	}
	r, err := retriever.Fallback(primary, secondary)
	if err != nil {
		return nil, err
	}

	s := &Server{
		deps:      deps,
		retriever: r,
		logger:    slog.Default(),
	}
	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "cmoskb",
		Version: version.Version,
	}, nil)
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "kb_search",
		Description: "Full-text search over the indexed knowledge base. Returns ranked paragraphs with file, line and section.",
	}, s.handleSearch)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "kb_recall",
		Description: "Scan the knowledge base files directly and return the best matching paragraphs. Works without an index and tolerates typos.",
	}, s.handleRecall)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "kb_index",
		Description: "Bring the full-text index up to date with the files on disk. Only changed files are re-processed unless force is set.",
	}, s.handleIndex)
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "kb_status",
		Description: "Report how many sources and chunks are indexed and when the index was last updated.",
	}, s.handleStatus)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", 4))
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp_server_started", slog.String("root", s.deps.Root))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}

// MCPServer exposes the underlying SDK server for in-process transports.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}
