package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/obhavo-bot/internal/api/http"
	"github.com/i474232898/obhavo-bot/internal/digest"
	"github.com/i474232898/obhavo-bot/internal/metrics"
	"github.com/i474232898/obhavo-bot/internal/scheduler"
	"github.com/i474232898/obhavo-bot/internal/telegram"
	"github.com/i474232898/obhavo-bot/internal/weather"
	"github.com/i474232898/obhavo-bot/internal/weather/providers"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler, the bot and the admin API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := adoptLegacy(ctx, cfg, st, log); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	provider := providers.NewOpenMeteoProvider(newHTTPClient(cfg.HTTPTimeout))
	refresher := weather.NewRefresher(st.cache, provider, weather.Regions(), cfg.HTTPTimeout*3, log, collector)

	api, err := newBotAPI(cfg)
	if err != nil {
		return err
	}
	log.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	renderer := newRenderer(cfg)
	client := telegram.NewClient(api, cfg.SendTimeout, cfg.SendPerSecond, log)
	digests := digest.NewService(st.cache, renderer, client, log)

	sched := scheduler.New(st.registry, digests, refresher, scheduler.Options{
		Tick:            cfg.Tick,
		Location:        cfg.Location,
		DefaultTime:     cfg.DefaultTime,
		CatchUp:         cfg.CatchUp,
		MarkOnFailure:   cfg.MarkOnFailure,
		RefreshInterval: cfg.RefreshInterval,
	}, log, collector)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	if cfg.BotPolling {
		bot := telegram.NewBot(api, st.users, st.cache, renderer, cfg.MiniAppURL, log)
		go func() {
			if err := bot.Run(ctx); err != nil {
				log.Error("bot stopped", zap.Error(err))
			}
		}()
	}

	app := httpapi.NewApp(httpapi.Deps{
		Cache:     st.cache,
		Registry:  st.registry,
		Users:     st.users,
		Digests:   digests,
		Gatherer:  reg,
		AccessLog: true,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", zap.Error(err))
		}
	}()
	log.Info("admin api listening", zap.String("port", cfg.Port))

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	return nil
}
