// Package events defines the payloads the game engine publishes for
// presentation and persistence collaborators.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/cgqgames/cgq/go/internal/models"
)

// Type names a game event.
type Type string

const (
	TypeQuestionStarted  Type = "QuestionStarted"
	TypeCardDrawn        Type = "CardDrawn"
	TypeCardDeployed     Type = "CardDeployed"
	TypeDeploymentFailed Type = "DeploymentFailed"
	TypeAnswerLocked     Type = "AnswerLocked"
	TypeCardsRetired     Type = "CardsRetired"
	TypeGameCompleted    Type = "GameCompleted"

	// Published by the run loop rather than the engine.
	TypeSnapshot        Type = "Snapshot"
	TypeProgressUpdated Type = "ProgressUpdated"
)

// Sink receives published events. A nil sink drops them.
type Sink func(t Type, payload any)

// QuestionStartedPayload is published when a question goes live.
type QuestionStartedPayload struct {
	QuestionIndex int       `json:"question_index"`
	QuestionID    string    `json:"question_id"`
	Points        int       `json:"points"`
	OptionCount   int       `json:"option_count"`
	StartedAt     time.Time `json:"started_at"`
}

// CardDrawnPayload is published when the per-question draw produces a card.
// Temporary cards apply immediately; permanent ones enter voting.
type CardDrawnPayload struct {
	CardID     string            `json:"card_id"`
	Name       string            `json:"name"`
	Type       models.CardType   `json:"type"`
	Permanence models.Permanence `json:"permanence"`
	DrawnAt    time.Time         `json:"drawn_at"`
}

// CardDeployedPayload is published when a card's effects go live.
type CardDeployedPayload struct {
	CardID       string    `json:"card_id"`
	DeploymentID uuid.UUID `json:"deployment_id"`
	Slot         int       `json:"slot"`
	Temporary    bool      `json:"temporary"`
	DeployedAt   time.Time `json:"deployed_at"`
}

// DeploymentFailedPayload is published when a vote crossed its threshold but
// the deployment was rejected.
type DeploymentFailedPayload struct {
	CardID string `json:"card_id"`
	Reason string `json:"reason"`
}

// AnswerLockedPayload is published at the transition into reveal.
type AnswerLockedPayload struct {
	QuestionIndex int       `json:"question_index"`
	Choice        string    `json:"choice,omitempty"`
	Correct       bool      `json:"correct"`
	ScoreDelta    int       `json:"score_delta"`
	Score         int       `json:"score"`
	Forced        bool      `json:"forced"`
	LockedAt      time.Time `json:"locked_at"`
}

// CardsRetiredPayload is published when temporary cards leave play at a
// question boundary.
type CardsRetiredPayload struct {
	CardIDs []string `json:"card_ids"`
}

// GameCompletedPayload is published exactly once, entering GameOver.
type GameCompletedPayload struct {
	GameID      uuid.UUID `json:"game_id"`
	Won         bool      `json:"won"`
	Score       int       `json:"score"`
	Surplus     int       `json:"surplus"`
	CompletedAt time.Time `json:"completed_at"`
}
