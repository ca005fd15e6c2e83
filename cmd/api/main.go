package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/config"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/handler"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/logger"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/metrics"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/ai"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/chat"
	"github.com/RadityaWisnuHerdinanto/FinalProjectMajuBarengAI/internal/service/tutor"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var envFile string

	cmd := &cobra.Command{
		Use:           "tutorbot",
		Short:         "Education Bot API",
		Long:          "HTTP API for a tutoring chatbot that keeps per-student sessions in memory.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadEnvFile(envFile)

			cfg, err := config.Load(v)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, cfg); err != nil {
				log.Error().Err(err).Msg("server exited")
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	flags.String("addr", "", "listen address or port (env PORT)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	flags.Bool("log-pretty", false, "human readable console logs (env LOG_PRETTY)")

	_ = v.BindPFlag("server.addr", flags.Lookup("addr"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.pretty", flags.Lookup("log-pretty"))

	return cmd
}

// loadEnvFile 加载 .env 文件，缺失时仅使用系统环境变量。
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger.Setup(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	m := metrics.NewMetrics()

	sessions := chat.NewService(
		chat.WithTTL(cfg.Session.TTL),
		chat.WithObserver(m),
	)
	sweeper := chat.NewSweeper(sessions, cfg.Session.SweepInterval)

	instruction, err := ai.NewInstructionSource(cfg.AI.InstructionFile)
	if err != nil {
		return fmt.Errorf("load system instruction: %w", err)
	}

	provider, err := ai.NewProvider(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("init model provider: %w", err)
	}
	aiService := ai.NewService(provider, instruction, cfg.AI.Timeout)
	log.Info().
		Str("component", "ai").
		Str("provider", aiService.ProviderName()).
		Str("model", cfg.AI.Model).
		Msg("model provider ready")

	tutorService := tutor.NewService(sessions, aiService, tutor.WithRecorder(m))

	router := handler.NewRouter(sessions, tutorService, m, cfg.Upload)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Education Bot API listening")
		return runServer(gctx, srv)
	})
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		return instruction.Watch(gctx)
	})

	return g.Wait()
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
