package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sintia-bot/sintia/pkg/bridge"
	"github.com/sintia-bot/sintia/pkg/bus"
	"github.com/sintia-bot/sintia/pkg/channels"
	"github.com/sintia-bot/sintia/pkg/commands"
	"github.com/sintia-bot/sintia/pkg/config"
	"github.com/sintia-bot/sintia/pkg/dispatch"
	"github.com/sintia-bot/sintia/pkg/generic"
	"github.com/sintia-bot/sintia/pkg/httpx"
	"github.com/sintia-bot/sintia/pkg/logger"
	"github.com/sintia-bot/sintia/pkg/ratelimit"
	"github.com/sintia-bot/sintia/pkg/store"
	"github.com/sintia-bot/sintia/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sintia: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.LogLevel)
	telemetry.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Connect(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	go func() {
		logger.InfoCF("telemetry", "Serving metrics", map[string]any{"addr": cfg.MetricsAddr})
		if err := telemetry.Serve(cfg.MetricsAddr); err != nil {
			logger.ErrorCF("telemetry", "Metrics server stopped", map[string]any{"error": err.Error()})
		}
	}()

	broker := bus.NewMessageBus()
	defer broker.Close()

	registry := dispatch.NewRegistry(cfg.CommandPrefix)
	commands.Register(registry)

	env := &dispatch.Env{
		Store:   db,
		Limiter: ratelimit.New(cfg.RateLimits),
		HTTP:    httpx.New(),
		Cfg:     cfg,
	}
	dispatcher := dispatch.New(broker, registry, env)
	dispatcher.AddListener(bridge.CrossPost)

	pairs, err := cfg.Pairs()
	if err != nil {
		return err
	}

	var adapters []channels.Adapter

	var discord *channels.DiscordChannel
	if cfg.DiscordToken != "" {
		discord, err = channels.NewDiscordChannel(cfg.DiscordToken, broker)
		if err != nil {
			return err
		}
		adapters = append(adapters, discord)
	}

	var irc *channels.IRCChannel
	if cfg.IRCToken != "" {
		irc = channels.NewIRCChannel(cfg.IRCNick, cfg.IRCToken, broker)
		irc.SetCapabilities(cfg.IRCSendCaps)
		adapters = append(adapters, irc)
	}

	if len(adapters) == 0 {
		return fmt.Errorf("no transport configured, set DISCORD_TOKEN and/or IRC_TOKEN")
	}

	// Assign through explicit nil checks so the directory never sees a
	// typed-nil endpoint.
	var discordEndpoint, ircEndpoint generic.Endpoint
	if discord != nil {
		discordEndpoint = discord
	}
	if irc != nil {
		ircEndpoint = irc
	}
	dir := channels.NewDirectory(pairs, discordEndpoint, ircEndpoint)
	if discord != nil {
		discord.Attach(dir, dispatcher)
	}
	if irc != nil {
		irc.Attach(dir)
	}

	manager := channels.NewManager(adapters...)
	if err := manager.StartAll(ctx); err != nil {
		return err
	}
	defer manager.StopAll(context.Background())

	logger.InfoC("main", "sintia is up")
	return dispatcher.Run(ctx)
}
