package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Schera-ole/monitors/internal/config"
	"github.com/Schera-ole/monitors/internal/driver/host"
	"github.com/Schera-ole/monitors/internal/driver/resctrl"
	"github.com/Schera-ole/monitors/internal/exporter"
	"github.com/Schera-ole/monitors/internal/handler"
	"github.com/Schera-ole/monitors/internal/logger"
	"github.com/Schera-ole/monitors/internal/monitor"
	cpumonitor "github.com/Schera-ole/monitors/internal/monitor/cpu"
	"github.com/Schera-ole/monitors/internal/monitor/membw"
	"github.com/Schera-ole/monitors/internal/repository"
	"github.com/Schera-ole/monitors/internal/service"
)

const shutdownTimeout = 5 * time.Second

// buildMonitors creates the monitors enabled in cfg. A monitor that cannot
// be constructed is left out.
func buildMonitors(
	cfg *config.AgentConfig,
	fs afero.Fs,
	cpuDriver cpumonitor.StatsDriver,
	logSugar *zap.SugaredLogger,
) []monitor.Monitor {

	var monitors []monitor.Monitor
	for _, name := range cfg.Monitors {
		switch name {
		case config.MonitorCPU:
			monitors = append(monitors, cpumonitor.New(cpuDriver, cfg.ComputeDriver,
				cpumonitor.WithLogger(logSugar)))
		case config.MonitorMemoryBW:
			driver := resctrl.New(fs, resctrl.Config{
				Root:         cfg.ResctrlRoot,
				L3ByNode:     cfg.L3ByNode,
				MaxBandwidth: cfg.MaxMemoryBandwidth,
			})
			m, err := membw.New(driver, cfg.ComputeDriver, membw.WithLogger(logSugar))
			if err != nil {
				logSugar.Warnw("cannot create monitor", "monitor", membw.MonitorName, "error", err)
				continue
			}
			monitors = append(monitors, m)
		default:
			logSugar.Warnw("unknown monitor", "monitor", name)
		}
	}
	return monitors
}

func run(ctx context.Context, args []string) error {
	agentConfig, err := config.NewAgentConfig(args)
	if err != nil {
		return fmt.Errorf("parse configuration: %w", err)
	}

	logSugar, err := logger.New(agentConfig.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logSugar.Sync()

	storage := repository.NewMemStorage()
	defer storage.Close()

	monitors := buildMonitors(agentConfig, afero.NewOsFs(), host.New(), logSugar)
	monitorService := service.NewMonitorService(monitors, storage, logSugar)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		exporter.New(storage, logSugar),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := &http.Server{
		Addr:    agentConfig.Address,
		Handler: handler.Router(storage, monitorService, registry, logSugar),
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logSugar.Infow("starting introspection server", "address", agentConfig.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		monitorService.Run(gCtx, agentConfig.PollInterval)
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logSugar.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		log.Fatal("Agent failed: ", err)
	}
}
