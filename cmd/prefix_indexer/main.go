package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-prefix-index/api"
	"github.com/gcbaptista/go-prefix-index/config"
	"github.com/gcbaptista/go-prefix-index/internal/analytics"
	"github.com/gcbaptista/go-prefix-index/internal/engine"
)

func main() {
	// Define command-line flags
	var (
		help       = flag.Bool("help", false, "Show help message")
		version    = flag.Bool("version", false, "Show version information")
		source     = flag.String("source", "", "Comma-separated ri directories to index (build mode)")
		outDir     = flag.String("out-dir", ".", "Directory for relative output paths (build mode)")
		fulltext   = flag.String("fulltext", config.DefaultFulltextFile, "Fulltext output file")
		index      = flag.String("index", config.DefaultIndexFile, "Index output file")
		suffixes   = flag.String("suffixes", config.DefaultSuffixesFile, "Debug suffixes output file")
		maxPrefix  = flag.Int("max-prefix", config.DefaultMaxPrefix, "Number of bytes compared when sorting suffixes")
		batchSize  = flag.Int("batch-size", config.DefaultBatchSize, "Offsets per index write")
		serve      = flag.Bool("serve", false, "Run the HTTP server instead of a one-shot build")
		port       = flag.String("port", "8080", "Port to run the server on (serve mode)")
		dataDir    = flag.String("data-dir", "./index_data", "Directory to store builds (serve mode)")
		sourceRoot = flag.String("source-root", ".", "Directory that build requests may read sources from (serve mode)")
	)

	flag.Parse()

	// Handle help flag
	if *help {
		fmt.Printf("Prefix Indexer - builds sorted suffix indexes over ri documentation\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s --source /usr/share/ri/system              # Write FULLTEXT, INDEX and suffixes here\n", os.Args[0])
		fmt.Printf("  %s --source a,b --out-dir /tmp/ri --max-prefix 32\n", os.Args[0])
		fmt.Printf("  %s --serve --port 9000 --data-dir /tmp/builds  # Start the build server\n", os.Args[0])
		fmt.Printf("  %s --serve --source-root /usr/share/ri         # Only build from ri trees below this root\n", os.Args[0])
		return
	}

	// Handle version flag
	if *version {
		fmt.Printf("Prefix Indexer v1.0.0\n")
		return
	}

	if *serve {
		runServer(*dataDir, *sourceRoot, *port)
		return
	}

	dirs := splitSources(*source)
	if len(dirs) == 0 {
		fmt.Fprintf(os.Stderr, "No source directories given; use --source (see --help)\n")
		os.Exit(2)
	}

	settings := buildSettings(*outDir, *fulltext, *index, *suffixes, *maxPrefix, *batchSize)
	if problems := settings.Validate(); len(problems) > 0 {
		fmt.Fprintf(os.Stderr, "Invalid build options: %s\n", strings.Join(problems, "; "))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := engine.RunBuild(ctx, settings, dirs); err != nil {
		log.Fatalf("Build failed: %v", err)
	}
}

// buildSettings maps the build-mode flags onto the settings of a one-shot build.
func buildSettings(outDir, fulltext, index, suffixes string, maxPrefix, batchSize int) config.BuildSettings {
	settings := config.BuildSettings{
		Name:         "cli",
		OutputDir:    outDir,
		FulltextFile: fulltext,
		IndexFile:    index,
		SuffixesFile: suffixes,
		MaxPrefix:    maxPrefix,
		BatchSize:    batchSize,
	}
	settings.ApplyDefaults()
	return settings
}

func splitSources(value string) []string {
	var dirs []string
	for _, dir := range strings.Split(value, ",") {
		if dir = strings.TrimSpace(dir); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func runServer(dataDir, sourceRoot, port string) {
	log.Printf("Using data directory: %s", dataDir)
	indexEngine := engine.NewEngine(dataDir, engine.WithSourceRoot(sourceRoot))
	log.Printf("Build sources are confined to: %s", indexEngine.SourceRoot())
	defer indexEngine.Stop()

	analyticsService := analytics.NewService(indexEngine, filepath.Join(dataDir, "analytics.gob"))

	router := gin.Default()
	api.SetupRoutesWithAnalytics(router, indexEngine, analyticsService)

	log.Printf("Starting server on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Printf("Failed to start server: %v", err)
	}
}
