package boardcheck

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/bingo/internal/domain/model"
)

// Config holds configuration for a check run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumBoards  int           // Boards per phase (session and stateless)
	Mix        model.Mix     // Mix requested for every board
	Workers    int           // Concurrent workers for stateless boards
	Timeout    time.Duration // HTTP request timeout
	OutputFile string        // Output file for boards
	LogFile    string        // Log file for check output
	Verbose    bool          // Log every board
}

// Stats holds run statistics.
type Stats struct {
	SessionBoards   int
	SessionShortAt  int // session board index that hit insufficient_pool, or -1
	StatelessBoards int
	StatelessFailed int
	Violations      int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// Report is what Run writes to the output file.
type Report struct {
	SessionID  string        `json:"session_id"`
	Session    []model.Board `json:"session_boards"`
	Stateless  []model.Board `json:"stateless_boards"`
	Violations []Violation   `json:"violations"`
}

// ParseMix reads "easy,normal,hard" counts, for example "8,9,8".
func ParseMix(s string) (model.Mix, error) {
	parts := strings.Split(s, ",")
	if len(parts) != len(model.Buckets) {
		return model.Mix{}, fmt.Errorf("mix %q: want %d comma separated counts", s, len(model.Buckets))
	}
	counts := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return model.Mix{}, fmt.Errorf("mix %q: bad count %q", s, p)
		}
		counts[i] = n
	}
	m := model.Mix{Easy: counts[0], Normal: counts[1], Hard: counts[2]}
	if m.Total() == 0 {
		return model.Mix{}, fmt.Errorf("mix %q: empty board", s)
	}
	return m, nil
}
