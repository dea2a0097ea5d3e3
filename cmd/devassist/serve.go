package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agusespa/devassist/internal/llm"
	"github.com/agusespa/devassist/internal/logging"
	"github.com/agusespa/devassist/internal/server"
	"github.com/agusespa/devassist/internal/syntax"
	"github.com/agusespa/devassist/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the analysis HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config from %s: %w", configFile, err)
			}

			closer := logging.Init(cfg.Logging)
			defer closer.Close()

			srv, err := buildServer(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "config.json", "Path to configuration file (JSON or YAML)")
	return cmd
}

func buildServer(cfg *config.Config) (*server.Server, error) {
	provider := llm.ProviderType(cfg.LLM.Provider)
	if err := llm.ValidateModel(provider, cfg.LLM.Model); err != nil {
		return nil, err
	}

	completer, err := llm.NewCompleter(llm.ProviderConfig{
		Type:      provider,
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	llm.WarnIfUnapproved(provider, completer.GetModel())
	logrus.WithFields(logrus.Fields{
		"provider": cfg.LLM.Provider,
		"model":    completer.GetModel(),
	}).Info("Completion engine configured")

	return server.New(completer, server.Options{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
		IdleTimeout:  cfg.Server.IdleTimeout.Std(),
		Inspector:    syntax.NewInspector(),
	}), nil
}
