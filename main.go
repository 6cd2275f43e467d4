package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/seoengine/api"
	"github.com/seo-optimizer/seoengine/config"
	"github.com/seo-optimizer/seoengine/generation"
	"github.com/seo-optimizer/seoengine/logging"
	"github.com/seo-optimizer/seoengine/seo"
	"github.com/seo-optimizer/seoengine/stats"
	"github.com/seo-optimizer/seoengine/store"
	"github.com/seo-optimizer/seoengine/suggest"
)

// usageRetentionMonths is how many months of usage counters are kept
const usageRetentionMonths = 12

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "seoengine: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.Stats.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	usage, err := stats.NewStorage(cfg.Stats.DataDir, stats.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to open usage statistics: %w", err)
	}
	defer func() {
		if err := usage.Shutdown(); err != nil {
			log.WithError(err).Warn("failed to flush usage statistics")
		}
	}()
	usage.Cleanup(usageRetentionMonths)

	traffic, err := logging.NewStatistics(filepath.Join(cfg.Stats.DataDir, "traffic.json"))
	if err != nil {
		log.WithError(err).Warn("could not load previous traffic statistics")
	}
	defer func() {
		if err := traffic.Save(); err != nil {
			log.WithError(err).Warn("failed to save traffic statistics")
		}
	}()

	posts, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer posts.Close()

	gen, closeGen, err := buildGenerator(ctx, cfg.Generation, usage, log)
	if err != nil {
		return err
	}
	defer closeGen()

	service := seo.NewService(posts, suggest.New(gen, log, usage),
		seo.WithLogger(log),
		seo.WithUsage(usage),
		seo.WithSite(cfg.Site),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(cfg.Server, service, traffic, usage, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":     cfg.Server.Port,
			"store":    cfg.Store.Driver,
			"provider": gen.Name(),
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildGenerator creates the configured provider, wrapped in the response
// cache when one is enabled. The returned func releases the cache.
func buildGenerator(ctx context.Context, cfg config.GenerationConfig, usage *stats.Storage, log logrus.FieldLogger) (generation.Generator, func(), error) {
	gen, err := generation.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s generator: %w", cfg.Provider, err)
	}

	cache, err := generation.NewCache(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	if cache == nil {
		return gen, func() {}, nil
	}

	closeCache := func() {
		if c, ok := cache.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.WithError(err).Warn("failed to close generation cache")
			}
		}
	}
	return generation.NewCached(gen, cache, usage, log), closeCache, nil
}
