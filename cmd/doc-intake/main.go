package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/doc-intake/internal/config"
	"github.com/a3tai/doc-intake/internal/fsaccess"
	"github.com/a3tai/doc-intake/internal/intake"
	"github.com/a3tai/doc-intake/internal/mcp"
	"github.com/a3tai/doc-intake/internal/verify"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the server mode and returns the logger handed to components
func setupLogging(cfg *config.Config) *log.Logger {
	if cfg.IsStdioMode() {
		// stdout carries the MCP protocol
		log.SetOutput(os.Stderr)
		// Silence logging in stdio mode unless debug is enabled
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
		}
	} else {
		// In server mode, log with file and line detail
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
	return log.New(log.Writer(), "", log.Flags())
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) {
	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Start server in a goroutine
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		// Wait for server to shutdown
		if err := <-serverErrCh; err != nil {
			log.Printf("Server shutdown with error: %v", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}

	log.Println("Server stopped successfully")
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, _ context.CancelFunc, server *mcp.Server) {
	// the parent process controls our lifecycle; exit when stdin closes
	if err := server.Run(ctx); err != nil {
		log.Printf("Server error: %v", err)
		os.Exit(1)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger.Printf("Starting with configuration: %s", cfg.String())

	// The selector carries the option table, blacklists, employment preset and preselection
	selector, err := cfg.NewSelector()
	if err != nil {
		log.Fatalf("Failed to build requirement options: %v", err)
	}

	controller := intake.NewController(
		cfg.IntakeConfiguration(),
		intake.WithSelector(selector),
		intake.WithLogger(logger),
		intake.WithChangeListener(func(ev intake.ChangeEvent) {
			logger.Printf("intake: files changed: %v", ev.FileNames)
		}),
	)
	controller.Start()
	defer controller.Stop()

	// Host files are loaded from the upload directory only

	loader, err := fsaccess.NewLoader(cfg.UploadDirectory, int64(cfg.MaxFileSizeMB*1024*1024))
	if err != nil {
		log.Fatalf("Failed to open upload directory: %v", err)
	}

	// Create the local verifier used by intake_verify
	backend, err := verify.NewBackend(verify.BackendType(cfg.VerifierBackend))
	if err != nil {
		log.Fatalf("Failed to create verifier: %v", err)
	}

	// Create MCP server
	server, err := mcp.NewServer(cfg, controller, loader, verify.NewVerifier(backend, logger), logger)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle different modes
	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server)
	} else {
		runStdioMode(ctx, cancel, server)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Doc Intake\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
