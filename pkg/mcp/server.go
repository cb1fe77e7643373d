package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/guidegen/pkg/config"
	"github.com/Sriram-PR/guidegen/pkg/generate"
	"github.com/Sriram-PR/guidegen/pkg/storage"
)

const (
	serverName    = "guidegen"
	serverVersion = "1.0.0"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig
	ConfigPath string
	Transport  string // "stdio" or "sse"
	Port       int
	Logger     *logrus.Logger
	Store      storage.BuildStore // Optional; enables last-build info and recording of build jobs
}

// Server wraps the MCP server with guide specific tools
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager
	previewer  *generate.Orchestrator
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	log := cfg.Logger.WithField("component", "mcp")
	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		log:        log,
		jobManager: NewJobManager(),
		previewer:  generate.NewOrchestrator(cfg.AppConfig, generate.Options{}, log),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	listGuidesTool := mcp.NewTool("list_guides",
		mcp.WithDescription("List the guide sources with their output files, outline and last build status"),
		mcp.WithString("only",
			mcp.Description("Comma-separated source name prefixes to filter by (optional)"),
		),
	)
	s.mcpServer.AddTool(listGuidesTool, s.handleListGuides)

	searchGuidesTool := mcp.NewTool("search_guides",
		mcp.WithDescription("Search guide sources using text matching"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query (case-insensitive substring match)"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Maximum number of results to return (default: 10, max: 100)"),
		),
	)
	s.mcpServer.AddTool(searchGuidesTool, s.handleSearchGuides)

	checkLinksTool := mcp.NewTool("check_links",
		mcp.WithDescription("Render one guide in memory and report fragment links that resolve to no anchor"),
		mcp.WithString("guide",
			mcp.Required(),
			mcp.Description("Guide source or output name (e.g., 'routing.md', 'routing.html' or 'routing')"),
		),
	)
	s.mcpServer.AddTool(checkLinksTool, s.handleCheckLinks)

	getSectionTool := mcp.NewTool("get_section",
		mcp.WithDescription("Return one numbered section of a rendered guide as markdown"),
		mcp.WithString("guide",
			mcp.Required(),
			mcp.Description("Guide source or output name"),
		),
		mcp.WithString("section",
			mcp.Required(),
			mcp.Description("Section number (e.g., '2.1') or anchor id (e.g., 'resource-routing')"),
		),
	)
	s.mcpServer.AddTool(getSectionTool, s.handleGetSection)

	buildGuidesTool := mcp.NewTool("build_guides",
		mcp.WithDescription("Start a background generation run. Returns immediately with a job ID."),
		mcp.WithString("only",
			mcp.Description("Comma-separated source name prefixes to generate (optional)"),
		),
		mcp.WithBoolean("all",
			mcp.Description("Regenerate targets even when they are up to date"),
		),
	)
	s.mcpServer.AddTool(buildGuidesTool, s.handleBuildGuides)

	getJobStatusTool := mcp.NewTool("get_job_status",
		mcp.WithDescription("Get the status of a build job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by build_guides"),
		),
	)
	s.mcpServer.AddTool(getJobStatusTool, s.handleGetJobStatus)

	s.log.Infof("Registered %d MCP tools", 6)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)
		return sseServer.Start(addr)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	s.jobManager.CancelAll()
	return nil
}
