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
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cgqgames/cgq/go/internal/campaign"
	"github.com/cgqgames/cgq/go/internal/chat"
	"github.com/cgqgames/cgq/go/internal/content"
	"github.com/cgqgames/cgq/go/internal/gateway"
	"github.com/cgqgames/cgq/go/internal/models"
	"github.com/cgqgames/cgq/go/internal/quiz/machine"
	"github.com/cgqgames/cgq/go/internal/quiz/random"
)

func main() {
	setupLogging()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg := loadConfig()
	if cfg.Channel == "" {
		log.Fatal().Msg("TWITCH_CHANNEL environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}

func setupLogging() {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if getEnvAsBool("LOG_PRETTY", false) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func run(ctx context.Context, cfg Config) error {
	questions, err := content.LoadQuestionSet(cfg.QuestionsFile)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	cards, err := content.LoadCardsDir(cfg.CardsDir)
	if err != nil {
		return fmt.Errorf("load cards: %w", err)
	}
	log.Info().
		Int("questions", len(questions)).
		Int("cards", len(cards)).
		Str("channel", cfg.Channel).
		Str("mode", string(cfg.Mode)).
		Msg("content loaded")

	seed, err := random.NewSeed()
	if err != nil {
		return fmt.Errorf("generate seed: %w", err)
	}

	var campaignApp *campaign.App
	if cfg.Mode == models.GameModeCampaign {
		app, pool, err := setupCampaign(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		campaignApp = app
	}

	hub := gateway.NewHub(gateway.DefaultConfig())
	go hub.Run(ctx)

	game := machine.New(machine.Config{
		GameDuration:       cfg.GameDuration,
		PassingGrade:       cfg.PassingGrade,
		ConsensusThreshold: cfg.ConsensusThreshold,
		SlotCapacity:       cfg.SlotCapacity,
		ShuffleQuestions:   cfg.ShuffleQuestions,
		ShuffleOptions:     cfg.ShuffleOptions,
		Mode:               cfg.Mode,
		Seed:               seed,
	}, questions, cards, clockwork.NewRealClock(), hub.EventSink())

	provider := chat.NewTwitchProvider(chat.TwitchConfig{Channel: cfg.Channel})
	if err := provider.Connect(ctx); err != nil {
		return err
	}
	defer provider.Close()
	go func() {
		if err := provider.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("chat provider stopped")
		}
	}()

	r := &runner{
		cfg:      cfg,
		clock:    clockwork.NewRealClock(),
		hub:      hub,
		campaign: campaignApp,
		cards:    cards,
		messages: provider.Messages(),
		game:     game,
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: gateway.Handler(hub, r.snapshot),
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("gateway server stopped")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("gateway shutdown failed")
		}
	}()

	return r.run(ctx)
}
