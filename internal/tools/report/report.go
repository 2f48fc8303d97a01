// Package report prints recent session outcomes and judge accuracy from the
// arena store. It is a read-only operator utility.
package report

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/imitation.space/internal/platform/cmd"
	"github.com/louisbranch/imitation.space/internal/services/arena/storage/sqlite"
)

// Config holds report command configuration.
type Config struct {
	DBPath  string        `env:"IMITATION_SPACE_ARENA_DB_PATH" envDefault:"data/arena.db"`
	Limit   int           `env:"IMITATION_SPACE_ARENA_REPORT_LIMIT" envDefault:"10"`
	JudgeID string        `env:"IMITATION_SPACE_ARENA_REPORT_JUDGE"`
	Timeout time.Duration `env:"IMITATION_SPACE_ARENA_REPORT_TIMEOUT" envDefault:"10s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The arena SQLite database path")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "Maximum sessions to list")
	fs.StringVar(&cfg.JudgeID, "judge", cfg.JudgeID, "Also print judge accuracy for this user ID")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Overall report timeout")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run prints the report to stdout.
func Run(ctx context.Context, cfg Config, stdout io.Writer) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	records, err := store.ListRecentSessions(ctx, cfg.Limit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	fmt.Fprintf(stdout, "Recent sessions (%d):\n", len(records))
	for _, record := range records {
		outcome := "no verdict"
		if record.VotedTargetID != "" {
			outcome = "judge wrong"
			if record.JudgeCorrect {
				outcome = "judge correct"
			}
		}
		fmt.Fprintf(stdout, "  %s  %-14s  %-9s  %-14s  %s\n",
			record.ID, record.Type, record.Status, record.EndCause, outcome)
	}

	if strings.TrimSpace(cfg.JudgeID) == "" {
		return nil
	}

	stats, err := store.GetJudgeStats(ctx, cfg.JudgeID)
	if err != nil {
		return fmt.Errorf("judge stats for %s: %w", cfg.JudgeID, err)
	}
	fmt.Fprintf(stdout, "Judge %s: %d tests, %d correct\n",
		stats.UserID, stats.TestsTaken, stats.CorrectGuesses)
	return nil
}
