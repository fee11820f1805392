package state

import (
	"github.com/google/uuid"

	"github.com/cgqgames/cgq/go/internal/models"
	"github.com/cgqgames/cgq/go/internal/quiz/consensus"
	"github.com/cgqgames/cgq/go/internal/quiz/timer"
	"github.com/cgqgames/cgq/go/internal/quiz/votes"
)

// CardView is a deployed card as exposed to presentation.
type CardView struct {
	DeploymentID uuid.UUID       `json:"deployment_id"`
	CardID       string          `json:"card_id"`
	Name         string          `json:"name"`
	Type         models.CardType `json:"type"`
	Slot         int             `json:"slot"`
	Temporary    bool            `json:"temporary"`
	Countered    bool            `json:"countered"`
}

// Snapshot is an immutable copy of the game context for rendering. It shares
// nothing with the live aggregate.
type Snapshot struct {
	GameID        uuid.UUID         `json:"game_id"`
	Phase         Phase             `json:"phase"`
	Mode          models.GameMode   `json:"mode"`
	Score         int               `json:"score"`
	PassingGrade  int               `json:"passing_grade"`
	QuestionIndex int               `json:"question_index"`
	QuestionCount int               `json:"question_count"`
	Question      *models.Question  `json:"question,omitempty"`
	Timer         timer.State       `json:"timer"`
	ActiveCards   []CardView        `json:"active_cards"`
	PendingCards  []string          `json:"pending_cards"`
	BannedTypes   []models.CardType `json:"banned_types"`
	SlotCapacity  int               `json:"slot_capacity"`

	// Consensus and Votes are filled in by the machine, which owns the
	// managers; GameContext.Snapshot leaves them zero.
	Consensus consensus.State        `json:"consensus"`
	Votes     map[string]votes.Tally `json:"votes"`
}

// Snapshot copies the context out for presentation.
func (g *GameContext) Snapshot() Snapshot {
	snap := Snapshot{
		GameID:        g.GameID,
		Phase:         g.Phase,
		Mode:          g.Mode,
		Score:         g.Score,
		PassingGrade:  g.PassingGrade,
		QuestionIndex: g.QuestionIndex(),
		QuestionCount: g.Sequence.Len(),
		Timer:         g.Timer.Snapshot(),
		SlotCapacity:  g.SlotCapacity,
	}

	if q := g.CurrentQuestion(); q != nil {
		qc := *q
		qc.Options = append([]models.Option(nil), q.Options...)
		snap.Question = &qc
	}

	snap.ActiveCards = make([]CardView, 0, len(g.ActiveCards))
	for _, d := range g.ActiveCards {
		snap.ActiveCards = append(snap.ActiveCards, CardView{
			DeploymentID: d.DeploymentID,
			CardID:       d.Card.ID,
			Name:         d.Card.Name,
			Type:         d.Card.Type,
			Slot:         d.Slot,
			Temporary:    d.Temporary(),
			Countered:    d.Countered,
		})
	}

	snap.PendingCards = make([]string, 0, len(g.Pending))
	for _, c := range g.Pending {
		snap.PendingCards = append(snap.PendingCards, c.ID)
	}

	snap.BannedTypes = make([]models.CardType, 0, len(g.BannedTypes))
	for t := range g.BannedTypes {
		snap.BannedTypes = append(snap.BannedTypes, t)
	}

	return snap
}
