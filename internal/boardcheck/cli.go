package boardcheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/bingo/pkg/logger"
)

// SetupLogging configures logging to both console and file and returns the
// file so the caller can close it. If logFile is empty, a timestamped
// filename is generated.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "boardcheck_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	if err := logger.Init(
		logger.WithWriter(io.MultiWriter(os.Stdout, file)),
		logger.WithLevel(level),
	); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the board check tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Bingo Board Check
=================

Drives a running bingo server and verifies every generated board.

Usage:
  go run ./cmd/board-check [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -boards int
        Boards to generate per phase (default 100)
  -mix string
        easy,normal,hard counts per board (default "8,9,8")
  -workers int
        Number of concurrent workers for stateless boards (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for boards (default: boards_TIMESTAMP.json)
  -log string
        Log file for check output (default: boardcheck_TIMESTAMP.log)
  -verbose
        Log every board
  -help
        Show this help message

Checks:
  Session phase: boards are drawn one after another in a new session until
  -boards are made or the pool runs short. No board may reuse a goal an
  earlier board exhausted.
  Stateless phase: -boards requests run concurrently.
  Every board must have the requested size and mix, distinct catalog goals,
  goals in their bucket's difficulty range, at most one goal per exclusive
  tag, and the exhaustion delta the catalog implies.

Examples:
  go run ./cmd/board-check -boards 500 -workers 16 -url http://localhost:8080
  go run ./cmd/board-check -mix 3,3,3 -verbose
`)
}
