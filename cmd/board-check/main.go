package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/bingo/internal/boardcheck"
)

// Default configuration constants.
const (
	defaultNumBoards   = 100
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numBoards  = flag.Int("boards", defaultNumBoards, "Boards to generate per phase")
		mixFlag    = flag.String("mix", boardcheck.DefaultMix, "easy,normal,hard counts per board")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for boards (default: boards_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for check output (default: boardcheck_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Log every board")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		boardcheck.ShowHelp()
		return 0
	}

	mix, err := boardcheck.ParseMix(*mixFlag)
	if err != nil {
		os.Stderr.WriteString("Invalid -mix: " + err.Error() + "\n")
		return 2
	}
	if *numBoards < 1 || *workers < 1 {
		os.Stderr.WriteString("-boards and -workers must be positive\n")
		return 2
	}

	closer, err := boardcheck.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTestTimeout)
	defer cancel()

	config := &boardcheck.Config{
		BaseURL:    *baseURL,
		NumBoards:  *numBoards,
		Mix:        mix,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	if _, err := boardcheck.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Check failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}
