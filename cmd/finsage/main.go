// Command finsage runs the financial advisory session engine, either as an
// HTTP server for the web frontend or as an interactive terminal session.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"finsage/internal/achievement"
	"finsage/internal/advisor"
	"finsage/internal/advisory"
	"finsage/internal/chat"
	"finsage/internal/config"
	"finsage/internal/decision"
	"finsage/internal/engine"
	"finsage/internal/identity"
	"finsage/internal/logging"
	"finsage/internal/observability"
	"finsage/internal/profile"
	"finsage/internal/recommend"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "finsage",
		Short:   "Personal financial advisory session engine",
		Version: version,
		Long: "finsage drives goal-based advisory sessions: pick an advisor persona,\n" +
			"answer a short question tree, and receive a personalized plan. A chat\n" +
			"channel to the advisor runs alongside the structured interview.",
	}

	root.PersistentFlags().String("backend-url", "", "advisory backend base URL")
	root.PersistentFlags().String("user", "", "stable user id for profile persistence")
	_ = viper.BindPFlag("backend.base_url", root.PersistentFlags().Lookup("backend-url"))
	_ = viper.BindPFlag("user_id", root.PersistentFlags().Lookup("user"))

	root.AddCommand(newServeCmd(), newChatCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime bundles everything a command needs after bootstrap.
type runtime struct {
	cfg        *config.Config
	controller *engine.Controller
	catalog    *advisor.Catalog
	registry   *prometheus.Registry
	logger     logging.Logger
}

// buildRuntime assembles the full session stack from configuration.
func buildRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewComponentLogger("finsage")
	registry := prometheus.NewRegistry()
	metrics := observability.MustNewMetrics(registry)

	client := advisory.NewClient(cfg.Backend, logger)
	fetcher, err := advisory.NewCachedOptionsFetcher(client, cfg.OptionsCacheSize, logger)
	if err != nil {
		return nil, fmt.Errorf("options cache: %w", err)
	}

	var store profile.Store
	if cfg.Profile.StoreDir != "" {
		store = profile.NewFileStore(cfg.Profile.StoreDir)
	} else {
		store = profile.NewInMemoryStore()
	}

	catalog := advisor.Default()
	id := identity.ForUser(viper.GetString("user_id"))

	controller, err := engine.NewController(ctx, engine.Options{
		Catalog:      catalog,
		Provider:     decision.NewProvider(fetcher, logger, metrics),
		Synthesizer:  recommend.NewSynthesizer(client, logger, metrics),
		Chat:         chat.NewOrchestrator(client, client, logger, metrics),
		Achievements: achievement.NewEngine(logger, metrics),
		Store:        store,
		Logger:       logger,
		Metrics:      metrics,
		Identity:     id,
	})
	if err != nil {
		return nil, fmt.Errorf("build controller: %w", err)
	}

	return &runtime{
		cfg:        cfg,
		controller: controller,
		catalog:    catalog,
		registry:   registry,
		logger:     logger,
	}, nil
}
