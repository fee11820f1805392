package main

import (
	"os"
	"strconv"
	"time"

	"github.com/cgqgames/cgq/go/internal/models"
)

// Config is the full runtime configuration, read from the environment.
type Config struct {
	Channel       string
	QuestionsFile string
	CardsDir      string
	Port          string

	Mode               models.GameMode
	GameDuration       time.Duration
	PassingGrade       int
	ConsensusThreshold int
	SlotCapacity       int
	ShuffleQuestions   bool
	ShuffleOptions     bool

	RevealDuration       time.Duration
	IntermissionDuration time.Duration
}

func loadConfig() Config {
	mode := models.GameModeNormal
	if getEnv("GAME_MODE", "normal") == "campaign" {
		mode = models.GameModeCampaign
	}
	return Config{
		Channel:       os.Getenv("TWITCH_CHANNEL"),
		QuestionsFile: getEnv("QUESTIONS_FILE", "content/questions.yml"),
		CardsDir:      getEnv("CARDS_DIR", "content/cards"),
		Port:          getEnv("PORT", "8080"),

		Mode:               mode,
		GameDuration:       getEnvAsDuration("GAME_DURATION", 10*time.Minute),
		PassingGrade:       getEnvAsInt("PASSING_GRADE", 6),
		ConsensusThreshold: getEnvAsInt("CONSENSUS_THRESHOLD", 2),
		SlotCapacity:       getEnvAsInt("SLOT_CAPACITY", 4),
		ShuffleQuestions:   getEnvAsBool("SHUFFLE_QUESTIONS", true),
		ShuffleOptions:     getEnvAsBool("SHUFFLE_OPTIONS", false),

		RevealDuration:       getEnvAsDuration("REVEAL_DURATION", 8*time.Second),
		IntermissionDuration: getEnvAsDuration("INTERMISSION_DURATION", 30*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
