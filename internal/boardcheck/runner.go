package boardcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bingo/internal/domain/model"
	"github.com/okian/bingo/pkg/logger"
)

// ErrViolations is returned when any board breaks an invariant.
var ErrViolations = errors.New("board invariants violated")

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// Run executes the complete board check.
func Run(ctx context.Context, config *Config) (*Report, error) {
	log := logger.Get().Named("boardcheck")
	stats := &Stats{StartTime: time.Now(), SessionShortAt: -1}

	log.Info(ctx, "starting bingo board check",
		logger.String("baseURL", config.BaseURL),
		logger.Int("boards", config.NumBoards),
		logger.Any("mix", config.Mix),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}
	log.Info(ctx, "service is healthy")

	// Step 2: Fetch the catalog the boards are drawn from
	cat, err := client.catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch failed: %w", err)
	}
	verifier := NewVerifier(cat)
	log.Info(ctx, "catalog fetched", logger.Int("goals", len(cat.Goals)), logger.Int("tags", len(cat.Tags)))

	report := &Report{}

	// Step 3: Generate boards in one session
	if err := runSession(ctx, log, client, verifier, config, stats, report); err != nil {
		return nil, fmt.Errorf("session phase failed: %w", err)
	}

	// Step 4: Generate stateless boards concurrently
	if err := runStateless(ctx, log, client, verifier, config, stats, report); err != nil {
		return nil, fmt.Errorf("stateless phase failed: %w", err)
	}

	// Step 5: Save boards to file
	if err := saveReport(ctx, log, config, report); err != nil {
		log.Warn(ctx, "failed to save boards to file", logger.Error(err))
	}

	stats.Violations = len(report.Violations)
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if stats.Violations > 0 {
		for _, v := range report.Violations {
			log.Error(ctx, "violation", logger.String("detail", v.String()))
		}
		return report, fmt.Errorf("%w: %d found", ErrViolations, stats.Violations)
	}

	log.Info(ctx, "board check completed successfully")
	return report, nil
}

// runSession draws boards one after another in a fresh session and checks
// that none of them reuses a goal exhausted by an earlier one. A short pool
// ends the phase early; that is expected once single-use tags drain it.
func runSession(ctx context.Context, log logger.Logger, client *HTTPClient, v *Verifier, config *Config, stats *Stats, report *Report) error {
	sess, err := client.createSession(ctx)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	report.SessionID = sess.ID
	defer func() {
		if err := client.deleteSession(context.WithoutCancel(ctx), sess.ID); err != nil {
			log.Warn(ctx, "failed to delete session", logger.String("session_id", sess.ID), logger.Error(err))
		}
	}()

	exhausted := model.NewGoalSet()
	for i := 0; i < config.NumBoards; i++ {
		b, err := client.sessionBoard(ctx, sess.ID, config.Mix)
		if errors.Is(err, ErrShortPool) {
			stats.SessionShortAt = i
			log.Info(ctx, "session pool exhausted", logger.Int("board", i), logger.Error(err))
			break
		}
		if err != nil {
			return fmt.Errorf("session board %d: %w", i, err)
		}

		report.Violations = append(report.Violations, v.Verify(b, config.Mix, exhausted)...)
		for _, name := range b.Exhausted {
			exhausted.Add(name)
		}
		report.Session = append(report.Session, b)
		stats.SessionBoards++

		if config.Verbose {
			log.Info(ctx, "session board",
				logger.Int("board", i),
				logger.String("id", b.ID),
				logger.Int64("seed", b.Seed),
				logger.Strings("single_use_tags", b.SingleUseTags),
				logger.Int("exhausted_total", len(exhausted)))
		}
	}

	info, err := client.session(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	got := slices.Clone(info.Exhausted)
	sort.Strings(got)
	if want := exhausted.Names(); !slices.Equal(got, want) {
		report.Violations = append(report.Violations, Violation{
			Rule:   "session_state",
			Detail: fmt.Sprintf("session lists %d exhausted goals, boards reported %d", len(got), len(want)),
		})
	}
	if len(info.Boards) != stats.SessionBoards {
		report.Violations = append(report.Violations, Violation{
			Rule:   "session_state",
			Detail: fmt.Sprintf("session lists %d boards, generated %d", len(info.Boards), stats.SessionBoards),
		})
	}
	return nil
}

// runStateless fires config.NumBoards stateless requests across a worker
// pool. Every board must be valid on its own.
func runStateless(ctx context.Context, log logger.Logger, client *HTTPClient, v *Verifier, config *Config, stats *Stats, report *Report) error {
	log.Info(ctx, "generating stateless boards", logger.Int("boards", config.NumBoards), logger.Int("workers", config.Workers))

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		succeeded int64
		failed    int64
	)

	jobs := make(chan int, config.Workers*WorkerChannelMultiplier)
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				b, err := client.board(ctx, config.Mix)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Warn(ctx, "stateless board failed", logger.Int("board", i), logger.Error(err))
					}
					continue
				}
				violations := v.Verify(b, config.Mix, nil)
				atomic.AddInt64(&succeeded, 1)

				mu.Lock()
				report.Stateless = append(report.Stateless, b)
				report.Violations = append(report.Violations, violations...)
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < config.NumBoards; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()

	stats.StatelessBoards = int(atomic.LoadInt64(&succeeded))
	stats.StatelessFailed = int(atomic.LoadInt64(&failed))
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled during stateless phase: %w", err)
	}
	return nil
}

// saveReport writes every board and violation to a JSON file.
func saveReport(ctx context.Context, log logger.Logger, config *Config, report *Report) error {
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "boards_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	log.Info(ctx, "boards saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, boardsPerSecond float64

	attempted := stats.StatelessBoards + stats.StatelessFailed
	if attempted > 0 {
		successRate = float64(stats.StatelessBoards) / float64(attempted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		boardsPerSecond = float64(stats.SessionBoards+attempted) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("sessionBoards", stats.SessionBoards),
		logger.Int("sessionShortAt", stats.SessionShortAt),
		logger.Int("statelessBoards", stats.StatelessBoards),
		logger.Int("statelessFailed", stats.StatelessFailed),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("boardsPerSecond", boardsPerSecond))
}
