package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/partyshah/ai-math-tutor/internal/artifacts"
	"github.com/partyshah/ai-math-tutor/internal/deck"
	"github.com/partyshah/ai-math-tutor/internal/deps"
	"github.com/partyshah/ai-math-tutor/internal/feedback"
	"github.com/partyshah/ai-math-tutor/internal/logging"
	"github.com/partyshah/ai-math-tutor/internal/media"
	"github.com/partyshah/ai-math-tutor/internal/server"
	"github.com/partyshah/ai-math-tutor/internal/services/llm"
	"github.com/partyshah/ai-math-tutor/internal/services/stt"
	"github.com/partyshah/ai-math-tutor/internal/store"
	"github.com/partyshah/ai-math-tutor/internal/tutor"
)

func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tutoring API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "tutord.log")},
			})
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			lock := flock.New(filepath.Join(cfg.Paths.LogDir, "tutord.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire server lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another tutord instance is already running")
			}
			defer func() { _ = lock.Unlock() }()

			for _, status := range deps.CheckBinaries(deps.Default()) {
				if status.Available {
					continue
				}
				if status.Optional {
					logger.Warn("optional tool missing",
						logging.String("tool", status.Command),
						logging.String("impact", status.Description))
					continue
				}
				logger.Error("required tool missing",
					logging.String("tool", status.Command),
					logging.String("impact", status.Description))
			}

			db, err := store.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			llmClient := llm.NewClient(llm.Config{
				APIKey:         cfg.LLM.APIKey,
				BaseURL:        cfg.LLM.BaseURL,
				Model:          cfg.LLM.Model,
				TimeoutSeconds: cfg.LLM.TimeoutSeconds,
			})
			sttClient := stt.NewClient(stt.Config{
				APIKey:         cfg.STT.APIKey,
				BaseURL:        cfg.STT.BaseURL,
				Model:          cfg.STT.Model,
				TimeoutSeconds: cfg.STT.TimeoutSeconds,
			})

			art := artifacts.NewStore(cfg.AudioSessionsDir(), cfg.SlideImagesDir(), logger)
			maxAge := time.Duration(cfg.Feedback.SessionMaxAgeHours) * time.Hour
			if result, err := art.Sweep(maxAge); err != nil {
				logger.Warn("startup artifact sweep failed", logging.Error(err))
			} else if result.AudioSessionsRemoved+result.ImageSessionsRemoved > 0 {
				logger.Info("startup artifact sweep",
					logging.Int("audio_sessions", result.AudioSessionsRemoved),
					logging.Int("image_sessions", result.ImageSessionsRemoved))
			}

			srv := server.New(server.Options{
				Bind:  cfg.Paths.APIBind,
				Store: db,
				Tutor: tutor.NewService(llmClient, logger),
				STT:   sttClient,
				Decks: deck.NewService(cfg.Paths.AssignmentsDir, logger),
				Artifacts: art,
				Pipeline: feedback.NewPipeline(
					llmClient,
					sttClient,
					media.NewProcessor(cfg.FFmpegBinary(), cfg.FFprobeBinary()),
					art,
					logger,
					cfg.Feedback.MaxSlideFloor,
				),
				Sweeper:       art,
				SessionMaxAge: maxAge,
				Logger:        logger,
			})
			if err := srv.Start(ctx); err != nil {
				return err
			}
			defer srv.Stop()

			<-ctx.Done()
			logger.Info("shutting down")
			return nil
		},
	}
}
