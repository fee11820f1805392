package models

import (
	"time"

	"github.com/google/uuid"
)

// GameMode selects between a one-off game and a campaign run that records
// progression.
type GameMode string

const (
	GameModeNormal   GameMode = "NORMAL"
	GameModeCampaign GameMode = "CAMPAIGN"
)

// GameResult is emitted exactly once per game, at the transition into
// GameOver. Surplus is the score above the passing grade (zero on a loss)
// and is the currency a campaign layer lets the crowd spend in the store.
type GameResult struct {
	GameID         uuid.UUID `json:"game_id"`
	Mode           GameMode  `json:"mode"`
	Won            bool      `json:"won"`
	Score          int       `json:"score"`
	Surplus        int       `json:"surplus"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalAnswered  int       `json:"total_answered"`
	CompletedAt    time.Time `json:"completed_at"`
}

// CampaignProgress is the durable state a campaign accumulates across games.
type CampaignProgress struct {
	Channel       string    `json:"channel"`
	Currency      int       `json:"currency"`
	GamesPlayed   int       `json:"games_played"`
	GamesWon      int       `json:"games_won"`
	UnlockedCards []string  `json:"unlocked_cards"`
	UpdatedAt     time.Time `json:"updated_at"`
}
