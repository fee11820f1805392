// Package machine drives one game through its phases. It owns the
// GameContext and is the only writer to it; chat adapters and gateways call
// in and read snapshots out.
package machine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/cgqgames/cgq/go/internal/models"
	"github.com/cgqgames/cgq/go/internal/quiz/consensus"
	"github.com/cgqgames/cgq/go/internal/quiz/deck"
	"github.com/cgqgames/cgq/go/internal/quiz/effects"
	"github.com/cgqgames/cgq/go/internal/quiz/events"
	"github.com/cgqgames/cgq/go/internal/quiz/random"
	"github.com/cgqgames/cgq/go/internal/quiz/sequence"
	"github.com/cgqgames/cgq/go/internal/quiz/state"
	"github.com/cgqgames/cgq/go/internal/quiz/timer"
	"github.com/cgqgames/cgq/go/internal/quiz/votes"
)

// ErrInvalidPhase rejects an operation the current phase does not allow.
var ErrInvalidPhase = errors.New("operation not valid in current phase")

const (
	DefaultGameDuration = 10 * time.Minute
	DefaultPassingGrade = 6
	DefaultSlotCapacity = 4
)

// Config tunes one game. Zero values fall back to the defaults above.
type Config struct {
	GameDuration       time.Duration
	PassingGrade       int
	ConsensusThreshold int
	SlotCapacity       int
	ShuffleQuestions   bool
	ShuffleOptions     bool
	Mode               models.GameMode
	Seed               int64
}

func (c Config) withDefaults() Config {
	if c.GameDuration <= 0 {
		c.GameDuration = DefaultGameDuration
	}
	if c.PassingGrade <= 0 {
		c.PassingGrade = DefaultPassingGrade
	}
	if c.ConsensusThreshold <= 0 {
		c.ConsensusThreshold = consensus.DefaultThreshold
	}
	if c.SlotCapacity <= 0 {
		c.SlotCapacity = DefaultSlotCapacity
	}
	if c.Mode == "" {
		c.Mode = models.GameModeNormal
	}
	return c
}

// Machine is the game state machine. It is not safe for concurrent use; the
// run loop serializes all calls.
type Machine struct {
	cfg   Config
	clock clockwork.Clock
	sink  events.Sink

	questions []models.Question
	cards     []models.Card

	ctx    *state.GameContext
	cons   *consensus.Manager
	votes  *votes.Manager
	engine *effects.Engine
	deck   *deck.Deck

	result *models.GameResult
}

// New builds a machine in the Idle phase.
func New(cfg Config, questions []models.Question, cards []models.Card, clock clockwork.Clock, sink events.Sink) *Machine {
	m := &Machine{
		cfg:       cfg.withDefaults(),
		clock:     clock,
		sink:      sink,
		questions: questions,
		cards:     cards,
	}
	m.reset(m.cfg.Seed)
	return m
}

// reset rebuilds all per-game state from the configured content.
func (m *Machine) reset(seed int64) {
	rnd := random.New(seed)
	m.engine = effects.New(rnd)
	m.deck = deck.New(m.cards, rnd)
	m.cons = consensus.New(m.cfg.ConsensusThreshold)
	m.votes = votes.New()
	m.result = nil
	m.ctx = &state.GameContext{
		GameID:           uuid.New(),
		Phase:            state.PhaseIdle,
		Mode:             m.cfg.Mode,
		PassingGrade:     m.cfg.PassingGrade,
		Timer:            timer.New(m.clock),
		Sequence:         sequence.New(m.questions, rnd, m.cfg.ShuffleQuestions, m.cfg.ShuffleOptions),
		SlotCapacity:     m.cfg.SlotCapacity,
		BannedTypes:      make(map[models.CardType]struct{}),
		VoteRequirements: make(map[string]int),
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() state.Phase {
	return m.ctx.Phase
}

// Context exposes the game state for read-only collaborators.
func (m *Machine) Context() *state.GameContext {
	return m.ctx
}

// Snapshot returns a presentation copy of the game state, including the
// current answer submissions and card vote tallies.
func (m *Machine) Snapshot() state.Snapshot {
	snap := m.ctx.Snapshot()
	snap.Consensus = m.cons.Snapshot()
	snap.Votes = m.votes.Snapshot()
	return snap
}

// VotableCards returns the drawn cards currently open for voting.
func (m *Machine) VotableCards() []*models.Card {
	out := make([]*models.Card, len(m.ctx.Pending))
	copy(out, m.ctx.Pending)
	return out
}

// Start moves Idle to Question and starts the game timer.
func (m *Machine) Start() error {
	if m.ctx.Phase != state.PhaseIdle {
		return fmt.Errorf("start in phase %s: %w", m.ctx.Phase, ErrInvalidPhase)
	}
	m.ctx.Timer.Start(m.cfg.GameDuration)
	log.Info().
		Stringer("game_id", m.ctx.GameID).
		Int("questions", m.ctx.Sequence.Len()).
		Dur("duration", m.cfg.GameDuration).
		Msg("game started")
	m.beginQuestion()
	return nil
}

// SubmitAnswer records one participant's answer. When the submission locks
// consensus the machine transitions to AnswerReveal before returning.
func (m *Machine) SubmitAnswer(participantID, choice string) error {
	if m.ctx.Phase != state.PhaseQuestion {
		return fmt.Errorf("answer in phase %s: %w", m.ctx.Phase, ErrInvalidPhase)
	}
	if err := m.cons.Submit(participantID, choice); err != nil {
		return fmt.Errorf("submit answer: %w", err)
	}
	if locked, ok := m.cons.LockedChoice(); ok {
		m.reveal(locked, false)
	}
	return nil
}

// VoteCard records one participant's vote for a pending card, deploying it
// on the cast that crosses the requirement. A rejected deployment discards
// the tally so voting can restart once the rejection clears.
func (m *Machine) VoteCard(participantID, cardID string) (votes.Outcome, error) {
	if m.ctx.Phase != state.PhaseQuestion {
		return votes.Outcome{}, fmt.Errorf("vote in phase %s: %w", m.ctx.Phase, ErrInvalidPhase)
	}
	if d := m.ctx.FindDeployed(cardID); d != nil {
		return votes.Outcome{Status: votes.StatusAlreadyDeployed}, nil
	}
	card := m.ctx.FindPending(cardID)
	if card == nil {
		return votes.Outcome{}, fmt.Errorf("vote for %q: %w", cardID, effects.ErrUnknownCard)
	}

	out := m.votes.CastVote(participantID, cardID, m.ctx.RequirementFor(card))
	if out.Status != votes.StatusDeployed {
		return out, nil
	}

	deployed, err := m.engine.Deploy(m.ctx, card)
	if err != nil {
		m.votes.Clear(cardID)
		log.Warn().Err(err).Str("card_id", cardID).Msg("deployment rejected")
		m.publish(events.TypeDeploymentFailed, events.DeploymentFailedPayload{
			CardID: cardID,
			Reason: err.Error(),
		})
		return out, fmt.Errorf("deploy %q: %w", cardID, err)
	}

	m.ctx.RemovePending(card.ID)
	m.publish(events.TypeCardDeployed, events.CardDeployedPayload{
		CardID:       card.ID,
		DeploymentID: deployed.DeploymentID,
		Slot:         deployed.Slot,
		Temporary:    deployed.Temporary(),
		DeployedAt:   m.clock.Now(),
	})
	m.syncChoices()
	m.maybeForceReveal()
	return out, nil
}

// Poll advances time-driven transitions. It returns true when the current
// question was force-revealed because the game timer expired.
func (m *Machine) Poll() bool {
	if m.ctx.Phase != state.PhaseQuestion {
		return false
	}
	if !m.ctx.Timer.Expired() {
		return false
	}
	log.Info().Stringer("game_id", m.ctx.GameID).Msg("timer expired, forcing reveal")
	m.reveal("", true)
	return true
}

// Advance leaves AnswerReveal for the next question, or for GameOver when
// the sequence is exhausted, the passing grade is reached, or time is up.
func (m *Machine) Advance() error {
	if m.ctx.Phase != state.PhaseAnswerReveal {
		return fmt.Errorf("advance in phase %s: %w", m.ctx.Phase, ErrInvalidPhase)
	}
	m.ctx.Sequence.Advance()
	if m.ctx.Sequence.Exhausted() || m.ctx.Score >= m.ctx.PassingGrade || m.ctx.Timer.Expired() {
		m.finish()
		return nil
	}
	m.beginQuestion()
	return nil
}

// Result returns the final outcome once the game has completed.
func (m *Machine) Result() (*models.GameResult, bool) {
	if m.result == nil {
		return nil, false
	}
	return m.result, true
}

// EnterStore moves a completed campaign game into the store.
func (m *Machine) EnterStore() error {
	if m.ctx.Phase != state.PhaseGameOver || m.ctx.Mode != models.GameModeCampaign {
		return fmt.Errorf("enter store in phase %s: %w", m.ctx.Phase, ErrInvalidPhase)
	}
	m.ctx.Phase = state.PhaseStore
	return nil
}

// EnterCampaignMap leaves the store for node selection.
func (m *Machine) EnterCampaignMap() error {
	if m.ctx.Phase != state.PhaseStore {
		return fmt.Errorf("enter campaign map in phase %s: %w", m.ctx.Phase, ErrInvalidPhase)
	}
	m.ctx.Phase = state.PhaseCampaignMap
	return nil
}

// ReturnToIdle resets the machine for a fresh game with a new seed. Normal
// games reset from GameOver, campaign games from the campaign map.
func (m *Machine) ReturnToIdle(seed int64) error {
	switch m.ctx.Phase {
	case state.PhaseGameOver:
		if m.ctx.Mode == models.GameModeCampaign {
			return fmt.Errorf("campaign games pass through the store: %w", ErrInvalidPhase)
		}
	case state.PhaseCampaignMap:
	default:
		return fmt.Errorf("reset in phase %s: %w", m.ctx.Phase, ErrInvalidPhase)
	}
	m.reset(seed)
	return nil
}

// beginQuestion enters the Question phase for the sequencer's current
// question: consensus and votes reset, one card drawn, timer running.
func (m *Machine) beginQuestion() {
	q := m.ctx.CurrentQuestion()
	if q == nil {
		m.finish()
		return
	}
	m.ctx.Phase = state.PhaseQuestion
	m.cons.Reset(q.OptionIDs())
	m.votes.Reset()
	m.drawCard()
	m.ctx.Timer.Resume()
	m.publish(events.TypeQuestionStarted, events.QuestionStartedPayload{
		QuestionIndex: m.ctx.QuestionIndex(),
		QuestionID:    q.ID,
		Points:        q.Points,
		OptionCount:   len(q.Options),
		StartedAt:     m.clock.Now(),
	})
	// A temporary card drawn just now may already have emptied the options.
	m.maybeForceReveal()
}

// drawCard draws at most one card per question. Temporary cards apply
// immediately; permanent cards join the pending list for voting.
func (m *Machine) drawCard() {
	card := m.deck.Draw(func(c *models.Card) bool { return m.ctx.Banned(c.Type) })
	if card == nil {
		return
	}
	m.publish(events.TypeCardDrawn, events.CardDrawnPayload{
		CardID:     card.ID,
		Name:       card.Name,
		Type:       card.Type,
		Permanence: card.Permanence,
		DrawnAt:    m.clock.Now(),
	})
	if card.Permanence == models.PermanenceTemporary {
		if _, err := m.engine.Deploy(m.ctx, card); err != nil {
			log.Warn().Err(err).Str("card_id", card.ID).Msg("drawn card failed to deploy")
			return
		}
		m.syncChoices()
		return
	}
	m.ctx.Pending = append(m.ctx.Pending, card)
}

// reveal transitions Question to AnswerReveal and settles scoring. The score
// delta flows through the mutate pipeline, so deployed cards intercept it
// even when the answer is wrong (a zero base delta); cards that should only
// amplify real points guard with a gt-zero condition.
func (m *Machine) reveal(choice string, forced bool) {
	m.ctx.Phase = state.PhaseAnswerReveal
	m.ctx.Timer.Pause()
	if !m.cons.Locked() {
		m.cons.ForceLock(choice)
	}

	q := m.ctx.CurrentQuestion()
	correct := q != nil && choice != "" && q.IsCorrect(choice)
	m.ctx.TotalAnswered++
	if correct {
		m.ctx.CorrectAnswers++
	}

	delta := 0
	if correct {
		delta = m.basePoints(q)
	}
	if v, err := m.engine.Mutate("score", "delta", effects.Int(m.ctx.Score), effects.Int(delta)); err == nil {
		if n, ok := v.AsInt(); ok {
			delta = n
		}
	}
	m.ctx.Score += delta

	m.publish(events.TypeAnswerLocked, events.AnswerLockedPayload{
		QuestionIndex: m.ctx.QuestionIndex(),
		Choice:        choice,
		Correct:       correct,
		ScoreDelta:    delta,
		Score:         m.ctx.Score,
		Forced:        forced,
		LockedAt:      m.clock.Now(),
	})

	if retired := m.engine.RetireTemporaries(m.ctx); len(retired) > 0 {
		m.publish(events.TypeCardsRetired, events.CardsRetiredPayload{CardIDs: retired})
	}
}

// basePoints runs the question's printed points through the query pipeline.
func (m *Machine) basePoints(q *models.Question) int {
	v, err := m.engine.Query("question", "points", effects.Int(q.Points))
	if err != nil {
		return q.Points
	}
	n, ok := v.AsInt()
	if !ok {
		return q.Points
	}
	return n
}

// finish enters GameOver and freezes the result.
func (m *Machine) finish() {
	m.ctx.Phase = state.PhaseGameOver
	m.ctx.Timer.Pause()
	won := m.ctx.Score >= m.ctx.PassingGrade
	m.result = &models.GameResult{
		GameID:         m.ctx.GameID,
		Mode:           m.ctx.Mode,
		Won:            won,
		Score:          m.ctx.Score,
		Surplus:        m.ctx.Surplus(),
		CorrectAnswers: m.ctx.CorrectAnswers,
		TotalAnswered:  m.ctx.TotalAnswered,
		CompletedAt:    m.clock.Now(),
	}
	log.Info().
		Stringer("game_id", m.ctx.GameID).
		Bool("won", won).
		Int("score", m.ctx.Score).
		Msg("game completed")
	m.publish(events.TypeGameCompleted, events.GameCompletedPayload{
		GameID:      m.ctx.GameID,
		Won:         won,
		Score:       m.ctx.Score,
		Surplus:     m.ctx.Surplus(),
		CompletedAt: m.clock.Now(),
	})
}

// syncChoices re-seeds consensus with the surviving options after a deploy
// may have eliminated some. Locked consensus and prior submissions for
// surviving options are preserved.
func (m *Machine) syncChoices() {
	if q := m.ctx.CurrentQuestion(); q != nil {
		m.cons.SetChoices(q.OptionIDs())
	}
}

// maybeForceReveal locks an empty answer when an effect has removed every
// option, which counts as incorrect.
func (m *Machine) maybeForceReveal() {
	if m.ctx.Phase != state.PhaseQuestion {
		return
	}
	q := m.ctx.CurrentQuestion()
	if q == nil || len(q.Options) > 0 {
		return
	}
	log.Info().Stringer("game_id", m.ctx.GameID).Msg("all options eliminated, forcing reveal")
	m.reveal("", true)
}

func (m *Machine) publish(t events.Type, payload any) {
	if m.sink != nil {
		m.sink(t, payload)
	}
}
