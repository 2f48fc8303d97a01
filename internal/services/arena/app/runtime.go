package app

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/imitation.space/internal/platform/timeouts"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/pool"
	"github.com/louisbranch/imitation.space/internal/services/arena/domain/session"
	"github.com/louisbranch/imitation.space/internal/services/arena/gateway"
	"github.com/louisbranch/imitation.space/internal/services/arena/responder"
	"github.com/louisbranch/imitation.space/internal/services/arena/storage/sqlite"
)

// RuntimeConfig assembles everything the arena runtime needs to start.
type RuntimeConfig struct {
	GRPCAddr          string
	StoragePath       string
	ChannelCount      int
	ChannelNamePrefix string
	SessionType       string
	SessionDuration   time.Duration
	VotePolicy        string
	ResponderURL      string
	ResponderSecret   string
	ResponderModel    string
	Logf              func(format string, args ...any)
}

// Run provisions the channel pool, opens storage, and serves until ctx is
// canceled. The physical channels survive restarts; only their identifiers
// are re-provisioned on startup.
func Run(ctx context.Context, cfg RuntimeConfig, platform gateway.Platform) error {
	if platform == nil {
		return fmt.Errorf("chat platform gateway is required")
	}
	if cfg.ChannelCount <= 0 {
		cfg.ChannelCount = 3
	}
	if strings.TrimSpace(cfg.ChannelNamePrefix) == "" {
		cfg.ChannelNamePrefix = "arena"
	}
	if strings.TrimSpace(cfg.GRPCAddr) == "" {
		cfg.GRPCAddr = ":8080"
	}
	logf := cfg.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	store, err := sqlite.Open(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logf("close storage: %v", err)
		}
	}()

	channelIDs, err := provisionChannels(ctx, platform, cfg.ChannelNamePrefix, cfg.ChannelCount)
	if err != nil {
		return err
	}
	channelPool, err := pool.New(channelIDs)
	if err != nil {
		return fmt.Errorf("seed channel pool: %w", err)
	}

	proxyResponder := responder.WithFallback(responder.NewHTTPResponder(responder.HTTPConfig{
		ResponsesURL:     cfg.ResponderURL,
		CredentialSecret: cfg.ResponderSecret,
		Model:            cfg.ResponderModel,
	}), "", logf)

	orchestrator, err := New(Config{
		SessionType:     session.ParseType(cfg.SessionType),
		SessionDuration: cfg.SessionDuration,
		VotePolicy:      ParseVotePolicy(cfg.VotePolicy),
	}, Deps{
		Pool:      channelPool,
		Platform:  platform,
		Sessions:  store,
		Stats:     store,
		Responder: proxyResponder,
		Logf:      logf,
	})
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}
	defer orchestrator.Shutdown()

	return serveHealth(ctx, cfg.GRPCAddr, logf)
}

func provisionChannels(ctx context.Context, platform gateway.Platform, prefix string, count int) ([]string, error) {
	channelIDs := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		callCtx, cancel := context.WithTimeout(ctx, timeouts.PlatformCall)
		channelID, err := platform.CreateChannel(callCtx, fmt.Sprintf("%s-%d", prefix, i))
		cancel()
		if err != nil {
			return nil, fmt.Errorf("provision channel %d of %d: %w", i, count, err)
		}
		channelIDs = append(channelIDs, channelID)
	}
	return channelIDs, nil
}

func serveHealth(ctx context.Context, addr string, logf func(format string, args ...any)) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	server := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("arena", healthpb.HealthCheckResponse_SERVING)

	errc := make(chan error, 1)
	go func() {
		logf("arena listening on %s", listener.Addr())
		errc <- server.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		healthServer.Shutdown()
		stopped := make(chan struct{})
		go func() {
			server.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(timeouts.Shutdown):
			server.Stop()
		}
		return nil
	case err := <-errc:
		return fmt.Errorf("serve grpc: %w", err)
	}
}
