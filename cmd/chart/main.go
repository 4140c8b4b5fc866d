package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/precip-chart/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/precip-chart/internal/adapter/kafka"
	"github.com/couchcryptid/precip-chart/internal/adapter/source"
	"github.com/couchcryptid/precip-chart/internal/chart"
	"github.com/couchcryptid/precip-chart/internal/config"
	"github.com/couchcryptid/precip-chart/internal/domain"
	"github.com/couchcryptid/precip-chart/internal/loader"
	"github.com/couchcryptid/precip-chart/internal/observability"
	"github.com/couchcryptid/precip-chart/internal/render"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	fetcher := source.New(cfg.DataSource, cfg.FetchTimeout, logger)
	l := loader.New(fetcher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, l, metrics, cfg.RenderCacheSize, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server so health checks answer while the data loads.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger, metrics)
		logger.Info("view event publishing enabled", "topic", cfg.KafkaViewTopic, "brokers", cfg.KafkaBrokers)
	}

	c, err := loadChart(ctx, cfg, l, publisher, logger, metrics)
	if err != nil {
		var loadErr *domain.LoadError
		if errors.As(err, &loadErr) {
			logger.Error("failed to load chart data", "location", loadErr.Location.Code, "file", loadErr.Location.File, "error", loadErr.Err)
		} else {
			logger.Error("failed to build chart", "error", err)
		}
		shutdown(srv, publisher, cfg, logger)
		os.Exit(1)
	}
	defer c.Close()
	srv.SetChart(c)

	<-ctx.Done()
	logger.Info("shutting down")
	shutdown(srv, publisher, cfg, logger)
	logger.Info("shutdown complete")
}

func loadChart(ctx context.Context, cfg *config.Config, l *loader.Loader, publisher *kafkaadapter.Publisher, logger *slog.Logger, metrics *observability.Metrics) (*chart.Controller, error) {
	loadCtx, cancel := context.WithTimeout(ctx, cfg.LoadTimeout)
	defer cancel()

	ds, err := l.Load(loadCtx, cfg.Locations)
	if err != nil {
		return nil, err
	}

	layout := render.DefaultLayout()
	layout.Width = float64(cfg.ChartWidth)
	layout.Height = float64(cfg.ChartHeight)

	opts := []chart.Option{
		chart.WithLayout(layout),
		chart.WithVariable(cfg.InitialVariable),
		chart.WithResetDelay(cfg.ZoomResetDelay),
		chart.WithTransition(cfg.TransitionDuration),
	}
	if !cfg.InitialWindow.IsZero() {
		opts = append(opts, chart.WithWindow(cfg.InitialWindow.Start, cfg.InitialWindow.End))
	}
	if publisher != nil {
		opts = append(opts, chart.WithPublisher(publisher))
	}
	return chart.New(ds, cfg.Locations, logger, metrics, opts...)
}

func shutdown(srv *httpadapter.Server, publisher *kafkaadapter.Publisher, cfg *config.Config, logger *slog.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
}
