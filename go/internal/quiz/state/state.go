// Package state holds GameContext, the single mutable aggregate of one game.
// The state machine owns the instance exclusively; every other component
// either computes purely against it or copies values out.
package state

import (
	"github.com/google/uuid"

	"github.com/cgqgames/cgq/go/internal/models"
	"github.com/cgqgames/cgq/go/internal/quiz/sequence"
	"github.com/cgqgames/cgq/go/internal/quiz/timer"
)

// Phase is a state of the game state machine.
type Phase string

const (
	PhaseIdle         Phase = "IDLE"
	PhaseQuestion     Phase = "QUESTION"
	PhaseAnswerReveal Phase = "ANSWER_REVEAL"
	PhaseGameOver     Phase = "GAME_OVER"
	// Campaign-only phases.
	PhaseStore       Phase = "STORE"
	PhaseCampaignMap Phase = "CAMPAIGN_MAP"
)

// DeployedCard is a card in play: a reference to immutable content plus
// deployment metadata. Temporary cards have Slot == -1.
type DeployedCard struct {
	DeploymentID uuid.UUID    `json:"deployment_id"`
	Card         *models.Card `json:"card"`
	Slot         int          `json:"slot"`
	DeployedAt   int          `json:"deployed_at"`
	Countered    bool         `json:"countered"`
}

// Temporary reports whether the deployment retires at the next question
// boundary.
func (d *DeployedCard) Temporary() bool {
	return d.Card.Permanence == models.PermanenceTemporary
}

// GameContext is the authoritative game state.
type GameContext struct {
	GameID       uuid.UUID
	Phase        Phase
	Mode         models.GameMode
	Score        int
	PassingGrade int

	CorrectAnswers int
	TotalAnswered  int

	Timer    *timer.Timer
	Sequence *sequence.Sequencer

	// ActiveCards never exceeds SlotCapacity permanents, except transiently
	// inside a single atomic slot-increase effect.
	ActiveCards  []*DeployedCard
	SlotCapacity int

	// Pending holds drawn permanent cards awaiting a successful vote.
	Pending []*models.Card

	// BannedTypes filters subsequent draws for the rest of the game.
	BannedTypes map[models.CardType]struct{}

	// VoteRequirements is the live requirement per card id; effects may push
	// it to zero or below.
	VoteRequirements map[string]int
}

// QuestionIndex returns the current position in the question sequence.
func (g *GameContext) QuestionIndex() int {
	return g.Sequence.Index()
}

// CurrentQuestion returns the question being played, nil when exhausted.
func (g *GameContext) CurrentQuestion() *models.Question {
	return g.Sequence.Current()
}

// SlotsOccupied counts permanent deployments, countered or not.
func (g *GameContext) SlotsOccupied() int {
	n := 0
	for _, d := range g.ActiveCards {
		if !d.Temporary() {
			n++
		}
	}
	return n
}

// NextFreeSlot returns the lowest unoccupied slot index, or -1 when full.
func (g *GameContext) NextFreeSlot() int {
	used := make(map[int]bool, len(g.ActiveCards))
	for _, d := range g.ActiveCards {
		if !d.Temporary() {
			used[d.Slot] = true
		}
	}
	for i := 0; i < g.SlotCapacity; i++ {
		if !used[i] {
			return i
		}
	}
	return -1
}

// FindDeployed returns the active deployment of a card id, or nil.
func (g *GameContext) FindDeployed(cardID string) *DeployedCard {
	for _, d := range g.ActiveCards {
		if d.Card.ID == cardID {
			return d
		}
	}
	return nil
}

// FindPending returns a drawn-but-undeployed card by id, or nil.
func (g *GameContext) FindPending(cardID string) *models.Card {
	for _, c := range g.Pending {
		if c.ID == cardID {
			return c
		}
	}
	return nil
}

// RemovePending drops a card from the pending list.
func (g *GameContext) RemovePending(cardID string) {
	for i, c := range g.Pending {
		if c.ID == cardID {
			g.Pending = append(g.Pending[:i], g.Pending[i+1:]...)
			return
		}
	}
}

// Banned reports whether a card type has been banned this game.
func (g *GameContext) Banned(t models.CardType) bool {
	_, ok := g.BannedTypes[t]
	return ok
}

// RequirementFor returns the live vote requirement for a card, falling back
// to the card's printed requirement.
func (g *GameContext) RequirementFor(card *models.Card) int {
	if req, ok := g.VoteRequirements[card.ID]; ok {
		return req
	}
	return card.VoteRequirement
}

// Surplus is the score above the passing grade, floored at zero.
func (g *GameContext) Surplus() int {
	if g.Score > g.PassingGrade {
		return g.Score - g.PassingGrade
	}
	return 0
}
