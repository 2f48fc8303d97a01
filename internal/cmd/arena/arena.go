// Package arena parses arena command flags and launches the arena runtime.
package arena

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	entrypoint "github.com/louisbranch/imitation.space/internal/platform/cmd"
	arenaserver "github.com/louisbranch/imitation.space/internal/services/arena/app"
	"github.com/louisbranch/imitation.space/internal/services/arena/gateway/local"
)

// Config holds arena command configuration.
type Config struct {
	Port            int           `env:"IMITATION_SPACE_ARENA_PORT" envDefault:"8080"`
	DBPath          string        `env:"IMITATION_SPACE_ARENA_DB_PATH" envDefault:"data/arena.db"`
	ChannelCount    int           `env:"IMITATION_SPACE_ARENA_CHANNEL_COUNT" envDefault:"3"`
	ChannelPrefix   string        `env:"IMITATION_SPACE_ARENA_CHANNEL_PREFIX" envDefault:"arena"`
	SessionType     string        `env:"IMITATION_SPACE_ARENA_SESSION_TYPE" envDefault:"1v1-with-judge"`
	SessionDuration time.Duration `env:"IMITATION_SPACE_ARENA_SESSION_DURATION" envDefault:"5m"`
	VotePolicy      string        `env:"IMITATION_SPACE_ARENA_VOTE_POLICY" envDefault:"last-vote-wins"`
	ResponderURL    string        `env:"IMITATION_SPACE_ARENA_RESPONDER_URL"`
	ResponderSecret string        `env:"IMITATION_SPACE_ARENA_RESPONDER_SECRET"`
	ResponderModel  string        `env:"IMITATION_SPACE_ARENA_RESPONDER_MODEL" envDefault:"gpt-4o-mini"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The arena health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The arena SQLite database path")
	fs.IntVar(&cfg.ChannelCount, "channel-count", cfg.ChannelCount, "Number of pooled session channels")
	fs.StringVar(&cfg.ChannelPrefix, "channel-prefix", cfg.ChannelPrefix, "Name prefix for pooled channels")
	fs.StringVar(&cfg.SessionType, "session-type", cfg.SessionType, "Session type: 1v1 or 1v1-with-judge")
	fs.DurationVar(&cfg.SessionDuration, "session-duration", cfg.SessionDuration, "Conversation window length")
	fs.StringVar(&cfg.VotePolicy, "vote-policy", cfg.VotePolicy, "Repeat vote policy: last-vote-wins or first-vote-only")
	fs.StringVar(&cfg.ResponderURL, "responder-url", cfg.ResponderURL, "Text-generation responses endpoint")
	fs.StringVar(&cfg.ResponderModel, "responder-model", cfg.ResponderModel, "Text-generation model")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the arena runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceArena, func(ctx context.Context) error {
		return arenaserver.Run(ctx, arenaserver.RuntimeConfig{
			GRPCAddr:          fmt.Sprintf(":%d", cfg.Port),
			StoragePath:       cfg.DBPath,
			ChannelCount:      cfg.ChannelCount,
			ChannelNamePrefix: cfg.ChannelPrefix,
			SessionType:       cfg.SessionType,
			SessionDuration:   cfg.SessionDuration,
			VotePolicy:        cfg.VotePolicy,
			ResponderURL:      cfg.ResponderURL,
			ResponderSecret:   cfg.ResponderSecret,
			ResponderModel:    cfg.ResponderModel,
			Logf:              log.Printf,
		}, local.New(log.Printf))
	})
}
