package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	guidelog "github.com/Sriram-PR/guidegen/pkg/log"
	"github.com/Sriram-PR/guidegen/pkg/mcp"
)

// runMcpServer handles the mcp-server subcommand
func runMcpServer(args []string) {
	fs := flag.NewFlagSet("mcp-server", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigFile, "Path to config file")
	transport := fs.String("transport", "stdio", "Transport type (stdio, sse)")
	port := fs.Int("port", 8080, "HTTP port (for sse transport)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: guidegen mcp-server [options]

Start an MCP (Model Context Protocol) server for AI tool integration.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Start with stdio transport
  guidegen mcp-server -config guides.yaml

  # Start with SSE transport on port 8080
  guidegen mcp-server -config guides.yaml -transport sse -port 8080

Available MCP Tools:
  list_guides     List the guides in the source directory
  search_guides   Search guide headings and content
  check_links     Report broken fragment links of one guide
  get_section     Fetch one numbered section of a guide as markdown
  build_guides    Start a background generation run
  get_job_status  Check the status of a generation run
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doMcpServer(*configFile, *transport, *port, *logLevel, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doMcpServer is the testable implementation of the MCP server
func doMcpServer(configPath, transport string, port int, logLevel string, stdout, stderr io.Writer) int {
	if transport != "stdio" && transport != "sse" {
		fmt.Fprintf(stderr, "Unknown transport: %s (supported: stdio, sse)\n", transport)
		return 1
	}

	// MCP protocol uses stdout, logs go to stderr
	log := guidelog.New(logLevel, stderr)

	appCfg, envWarnings, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	warnings, err := appCfg.Validate()
	for _, w := range append(envWarnings, warnings...) {
		log.Warn(w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	if err := appCfg.ResolveEdge(appCfg.SourceDir); err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	serverCfg := &mcp.ServerConfig{
		AppConfig:  appCfg,
		ConfigPath: configPath,
		Transport:  transport,
		Port:       port,
		Logger:     log,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store, err := openStore(ctx, appCfg, false, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening build database: %v\n", err)
		return 1
	}
	if store != nil {
		defer store.Close()
		serverCfg.Store = store
	}

	server, err := mcp.NewServer(serverCfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return 1
	}
	defer server.Shutdown(ctx)

	log.Infof("Starting MCP server (transport: %s)", transport)

	if err := server.Run(); err != nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return 1
	}

	return 0
}
