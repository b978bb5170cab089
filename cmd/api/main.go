// Command api runs the AFIP relay: the JSON facade, the ticket watchdogs,
// the CAEA outbox worker and the calendar bootstrap, all in one process.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/afrelay/afrelay/internal/afiptime"
	"github.com/afrelay/afrelay/internal/api"
	"github.com/afrelay/afrelay/internal/caea"
	"github.com/afrelay/afrelay/internal/clock"
	"github.com/afrelay/afrelay/internal/config"
	"github.com/afrelay/afrelay/internal/logging"
	"github.com/afrelay/afrelay/internal/observability"
	"github.com/afrelay/afrelay/internal/scheduler"
	"github.com/afrelay/afrelay/internal/service"
	"github.com/afrelay/afrelay/internal/signing"
	"github.com/afrelay/afrelay/internal/soap"
	"github.com/afrelay/afrelay/internal/state"
	"github.com/afrelay/afrelay/internal/ticket"
)

func main() {
	configPath := flag.String("config", os.Getenv("AFRELAY_CONFIG"), "path to the YAML config file")
	flag.Parse()

	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging, cfg.Server.Env)
	if err != nil {
		log.Fatalf("open log sink: %v", err)
	}

	cred, err := signing.Load(cfg.Tickets)
	if err != nil {
		logger.Fatalf("Load signing credential: %v", err)
	}

	clk := clock.System()

	store, err := state.Open(cfg.State.DBPath, clk)
	if err != nil {
		logger.Fatalf("Open state database: %v", err)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	obsStore := observability.NewStore(cfg.Observability.MaxLogs, cfg.Observability.MaxEvents, clk)
	collector := observability.NewCollector(obsStore, observability.NewMetrics(registry), cfg, clk)

	endpoints := soap.EndpointsFromFlags(cfg.AFIP.WSAAProduction, cfg.AFIP.WSFEProduction, cfg.AFIP.WSPCIProduction)
	clients := soap.NewClientSet(endpoints, nil)
	gateway := soap.NewGateway(collector, logger)

	timeSource := afiptime.NewSource(cfg.AFIP.NTPHost)
	tickets := ticket.NewManager(cfg, cred, timeSource, clients, gateway, clk, logger)

	wsfe := service.NewWSFE(tickets, clients, gateway)
	wspci := service.NewWSPCI(tickets, clients, gateway)

	worker := caea.NewWorker(store, wsfe, collector, clk, logger)
	engine := caea.NewEngine(store, worker, cfg.CAEA.BootstrapCuits, clk, logger)

	deps := api.Deps{
		Config:    cfg,
		Logger:    logger,
		WSFE:      wsfe,
		WSPCI:     wspci,
		Tickets:   tickets,
		Engine:    engine,
		Worker:    worker,
		State:     store,
		Collector: collector,
		Time:      timeSource,
		Registry:  registry,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(logger)
	api.RegisterJobs(sched, deps)
	sched.Start(ctx)

	if err := api.NewServer(deps).Run(ctx); err != nil {
		logger.Errorf("Server stopped: %v", err)
	}

	sched.Wait()
	logger.Info("afrelay stopped")
}
