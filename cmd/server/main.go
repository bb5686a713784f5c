package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tableau-agent-mcp-server/internal/browser"
	"tableau-agent-mcp-server/internal/config"
	"tableau-agent-mcp-server/internal/dashboard"
	"tableau-agent-mcp-server/internal/mangle"
	mcpserver "tableau-agent-mcp-server/internal/mcp"
	"tableau-agent-mcp-server/internal/recorder"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the Tableau agent MCP config file")
	ssePort := flag.Int("sse-port", 0, "Optional SSE port override (falls back to config)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Before we can redirect logs, write to stderr as last resort
		log.Fatalf("failed to load config: %v", err)
	}

	// Redirect logging to file for stdio mode (stderr interferes with MCP protocol)
	if cfg.MCP.SSEPort == 0 && cfg.Server.LogFile != "" {
		logFile, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			log.SetOutput(logFile)
			defer logFile.Close()
		} else {
			// If we can't open log file, disable logging to avoid stderr pollution
			log.SetOutput(io.Discard)
		}
	}
	if *ssePort != 0 {
		cfg.MCP.SSEPort = *ssePort
	}

	mangleEngine, err := mangle.NewEngine(cfg.Mangle)
	if err != nil {
		log.Fatalf("failed to initialize mangle engine: %v", err)
	}

	sessionManager := browser.NewSessionManager(cfg.Browser, cfg.Dashboard, mangleEngine)
	if err := sessionManager.Start(ctx); err != nil {
		log.Fatalf("failed to initialize Rod session manager: %v", err)
	}
	defer func() {
		_ = sessionManager.Shutdown(context.Background())
	}()

	var rec dashboard.Recorder
	if cfg.Recorder.Enable {
		r, err := recorder.NewRecorder(cfg.Recorder.TraceDir)
		if err != nil {
			log.Printf("recorder disabled: %v", err)
		} else {
			rec = r
			defer r.Close()
		}
	}

	analyzer := dashboard.NewAnalyzer(sessionManager, cfg, mangleEngine, rec)

	server, err := mcpserver.NewServer(cfg, analyzer, mangleEngine)
	if err != nil {
		log.Fatalf("failed to initialize MCP server: %v", err)
	}

	var startErr error
	if cfg.MCP.SSEPort > 0 {
		log.Printf("starting Tableau agent MCP SSE server on port %d", cfg.MCP.SSEPort)
		startErr = server.StartSSE(ctx, cfg.MCP.SSEPort)
	} else {
		log.Printf("starting Tableau agent MCP stdio server")
		startErr = server.Start(ctx)
	}

	if startErr != nil && !errors.Is(startErr, context.Canceled) {
		log.Fatalf("server exited with error: %v", startErr)
	}
}
