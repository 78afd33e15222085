package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/factrelay/internal/bus"
	"github.com/nextlevelbuilder/factrelay/internal/channels/discord"
	"github.com/nextlevelbuilder/factrelay/internal/config"
	"github.com/nextlevelbuilder/factrelay/internal/engine"
	"github.com/nextlevelbuilder/factrelay/internal/personas"
	"github.com/nextlevelbuilder/factrelay/internal/presence"
	"github.com/nextlevelbuilder/factrelay/internal/relay"
	"github.com/nextlevelbuilder/factrelay/internal/settings"
	"github.com/nextlevelbuilder/factrelay/internal/store/pg"
	"github.com/nextlevelbuilder/factrelay/internal/usercache"
)

func runRelay() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	token := cfg.Discord.Token
	if dev {
		token = cfg.Discord.DevToken
	}
	if token == "" {
		slog.Error("no discord token configured")
		os.Exit(1)
	}
	if cfg.Database.PostgresDSN == "" {
		slog.Error("FACTRELAY_POSTGRES_DSN environment variable is not set")
		os.Exit(1)
	}

	db, err := pg.OpenDB(cfg.Database.PostgresDSN)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	stores := pg.NewPGStores(db)

	ingestQueue := bus.NewQueue[bus.RelayRequest](cfg.Relay.IngestQueueSize)
	egressQueue := bus.NewQueue[bus.RelayResponse](cfg.Relay.EgressQueueSize)

	channel, err := discord.New(cfg.Discord, token)
	if err != nil {
		slog.Error("failed to create discord channel", "error", err)
		os.Exit(1)
	}

	ident := &relay.Identity{}
	cache := settings.NewCache(stores.Settings, channel)
	commands := relay.NewCommands(ident, cache, channel)
	dispatcher := relay.NewIngest(ident, cache, ingestQueue, commands, channel,
		cfg.Relay.Debug, cfg.Relay.TestGuildID)
	flusher := usercache.NewFlusher(stores.Users, cfg.Relay.UserCacheQueueSize)
	pool := personas.NewPool()
	channel.Attach(ident, dispatcher, cache, flusher, pool)

	session := engine.NewSession(engine.Config{
		Addr:     fmt.Sprintf("%s:%d", cfg.Engine.Host, cfg.Engine.Port),
		Username: cfg.Engine.Username,
		Password: cfg.Engine.Password,
	}, ingestQueue, egressQueue, pool, cache)

	egress := relay.NewEgress(egressQueue, cache, channel)
	updater := presence.NewUpdater(channel, channel, stores.Counts, dev)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := channel.Start(ctx); err != nil {
		slog.Error("failed to start discord channel", "error", err)
		os.Exit(1)
	}
	defer channel.Stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return session.Run(ctx) })
	g.Go(func() error { return egress.Run(ctx) })
	g.Go(func() error { return flusher.Run(ctx) })
	g.Go(func() error { return updater.Run(ctx) })

	slog.Info("relay running", "debug", cfg.Relay.Debug, "dev", dev)

	// Shutdown is by signal; in-flight engine exchanges and queued items are
	// dropped, not drained.
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		slog.Error("relay worker failed", "error", err)
		os.Exit(1)
	}
	slog.Info("relay stopped")
}
