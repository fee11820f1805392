package machine

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cgqgames/cgq/go/internal/models"
	"github.com/cgqgames/cgq/go/internal/quiz/consensus"
	"github.com/cgqgames/cgq/go/internal/quiz/effects"
	"github.com/cgqgames/cgq/go/internal/quiz/events"
	"github.com/cgqgames/cgq/go/internal/quiz/state"
	"github.com/cgqgames/cgq/go/internal/quiz/votes"
)

func testQuestions(n int) []models.Question {
	qs := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, models.Question{
			ID:     "q" + string(rune('1'+i)),
			Text:   "question",
			Points: 1,
			Options: []models.Option{
				{ID: "a", Text: "right", Correct: true},
				{ID: "b", Text: "wrong"},
				{ID: "c", Text: "wrong"},
				{ID: "d", Text: "wrong"},
			},
		})
	}
	return qs
}

type recorder struct {
	types    []events.Type
	payloads []any
}

func (r *recorder) sink(t events.Type, payload any) {
	r.types = append(r.types, t)
	r.payloads = append(r.payloads, payload)
}

func (r *recorder) has(t events.Type) bool {
	for _, got := range r.types {
		if got == t {
			return true
		}
	}
	return false
}

func newTestMachine(t *testing.T, cfg Config, questions []models.Question, cards []models.Card) (*Machine, *recorder, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	rec := &recorder{}
	m := New(cfg, questions, cards, clock, rec.sink)
	return m, rec, clock
}

// answerWith drives both consensus participants to the same choice.
func answerWith(t *testing.T, m *Machine, choice string) {
	t.Helper()
	if err := m.SubmitAnswer("u1", choice); err != nil {
		t.Fatalf("SubmitAnswer(u1): %v", err)
	}
	if err := m.SubmitAnswer("u2", choice); err != nil {
		t.Fatalf("SubmitAnswer(u2): %v", err)
	}
	if m.Phase() != state.PhaseAnswerReveal {
		t.Fatalf("phase after consensus = %s, want %s", m.Phase(), state.PhaseAnswerReveal)
	}
}

func TestStartTransitionsToQuestion(t *testing.T) {
	m, rec, _ := newTestMachine(t, Config{}, testQuestions(3), nil)

	if m.Phase() != state.PhaseIdle {
		t.Fatalf("initial phase = %s, want %s", m.Phase(), state.PhaseIdle)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if m.Phase() != state.PhaseQuestion {
		t.Fatalf("phase = %s, want %s", m.Phase(), state.PhaseQuestion)
	}
	if !rec.has(events.TypeQuestionStarted) {
		t.Fatal("expected QuestionStarted event")
	}
	if err := m.Start(); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("second Start = %v, want ErrInvalidPhase", err)
	}
}

func TestConsensusLocksAndScores(t *testing.T) {
	m, rec, _ := newTestMachine(t, Config{}, testQuestions(3), nil)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := m.SubmitAnswer("u1", "a"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if m.Phase() != state.PhaseQuestion {
		t.Fatal("one vote must not lock with threshold 2")
	}
	if err := m.SubmitAnswer("u2", "A"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if m.Phase() != state.PhaseAnswerReveal {
		t.Fatalf("phase = %s, want %s", m.Phase(), state.PhaseAnswerReveal)
	}
	ctx := m.Context()
	if ctx.Score != 1 || ctx.CorrectAnswers != 1 || ctx.TotalAnswered != 1 {
		t.Fatalf("score=%d correct=%d answered=%d, want 1/1/1", ctx.Score, ctx.CorrectAnswers, ctx.TotalAnswered)
	}
	if !rec.has(events.TypeAnswerLocked) {
		t.Fatal("expected AnswerLocked event")
	}
	if err := m.SubmitAnswer("u3", "b"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("answer after lock = %v, want ErrInvalidPhase", err)
	}
	if err := m.SubmitAnswer("u3", "zzz"); errors.Is(err, consensus.ErrInvalidChoice) {
		t.Fatal("phase guard should run before choice validation")
	}
}

func TestWrongAnswerScoresNothing(t *testing.T) {
	m, _, _ := newTestMachine(t, Config{}, testQuestions(3), nil)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	answerWith(t, m, "c")

	ctx := m.Context()
	if ctx.Score != 0 || ctx.CorrectAnswers != 0 || ctx.TotalAnswered != 1 {
		t.Fatalf("score=%d correct=%d answered=%d, want 0/0/1", ctx.Score, ctx.CorrectAnswers, ctx.TotalAnswered)
	}
}

func TestExhaustionEndsGame(t *testing.T) {
	m, rec, _ := newTestMachine(t, Config{PassingGrade: 10}, testQuestions(2), nil)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 2; i++ {
		answerWith(t, m, "b")
		if err := m.Advance(); err != nil {
			t.Fatalf("Advance %d: %v", i, err)
		}
	}
	if m.Phase() != state.PhaseGameOver {
		t.Fatalf("phase = %s, want %s", m.Phase(), state.PhaseGameOver)
	}
	res, ok := m.Result()
	if !ok {
		t.Fatal("expected a result after game over")
	}
	if res.Won || res.Score != 0 || res.TotalAnswered != 2 {
		t.Fatalf("result = %+v, want lost with 0 points over 2 answers", res)
	}
	if !rec.has(events.TypeGameCompleted) {
		t.Fatal("expected GameCompleted event")
	}
}

func TestPassingGradeEndsEarly(t *testing.T) {
	m, _, _ := newTestMachine(t, Config{PassingGrade: 1}, testQuestions(5), nil)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	answerWith(t, m, "a")
	if err := m.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if m.Phase() != state.PhaseGameOver {
		t.Fatalf("phase = %s, want %s", m.Phase(), state.PhaseGameOver)
	}
	res, _ := m.Result()
	if res == nil || !res.Won || res.Surplus != 0 {
		t.Fatalf("result = %+v, want win with no surplus", res)
	}
}

func TestTimerExpiryForcesReveal(t *testing.T) {
	cfg := Config{GameDuration: time.Minute, PassingGrade: 10}
	m, _, clock := newTestMachine(t, cfg, testQuestions(3), nil)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if m.Poll() {
		t.Fatal("Poll must be a no-op before expiry")
	}
	clock.Advance(2 * time.Minute)
	if !m.Poll() {
		t.Fatal("Poll should force a reveal after expiry")
	}
	if m.Phase() != state.PhaseAnswerReveal {
		t.Fatalf("phase = %s, want %s", m.Phase(), state.PhaseAnswerReveal)
	}
	ctx := m.Context()
	if ctx.TotalAnswered != 1 || ctx.CorrectAnswers != 0 {
		t.Fatalf("forced reveal counted as answered=%d correct=%d, want 1/0", ctx.TotalAnswered, ctx.CorrectAnswers)
	}

	if err := m.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if m.Phase() != state.PhaseGameOver {
		t.Fatalf("phase after expiry advance = %s, want %s", m.Phase(), state.PhaseGameOver)
	}
	if res, _ := m.Result(); res == nil || res.Won {
		t.Fatalf("result = %+v, want a loss", res)
	}
}

func TestVoteDeploysPendingCard(t *testing.T) {
	cards := []models.Card{{
		ID:              "union_backing",
		Name:            "Union Backing",
		Type:            models.CardTypeAlly,
		Permanence:      models.PermanencePermanent,
		VoteRequirement: 2,
		Effects: []models.EffectDef{{
			ID:         "plus_two",
			Type:       models.EffectModifyPoints,
			Amount:     2,
			Intercepts: []models.InterceptPoint{{Component: "score", Operation: "delta"}},
			Timing:     models.TimingOnMutation,
		}},
	}}
	m, rec, _ := newTestMachine(t, Config{PassingGrade: 10}, testQuestions(3), cards)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	votable := m.VotableCards()
	if len(votable) != 1 || votable[0].ID != "union_backing" {
		t.Fatalf("votable cards = %+v, want the drawn permanent", votable)
	}

	out, err := m.VoteCard("u1", "union_backing")
	if err != nil || out.Status != votes.StatusPending {
		t.Fatalf("first vote = %+v, %v", out, err)
	}
	out, err = m.VoteCard("u2", "union_backing")
	if err != nil || out.Status != votes.StatusDeployed {
		t.Fatalf("second vote = %+v, %v", out, err)
	}
	if !rec.has(events.TypeCardDeployed) {
		t.Fatal("expected CardDeployed event")
	}
	if len(m.VotableCards()) != 0 {
		t.Fatal("deployed card must leave the pending list")
	}
	if out, _ := m.VoteCard("u3", "union_backing"); out.Status != votes.StatusAlreadyDeployed {
		t.Fatalf("vote after deploy = %+v, want ALREADY_DEPLOYED", out)
	}

	answerWith(t, m, "a")
	if got := m.Context().Score; got != 3 {
		t.Fatalf("score with +2 interceptor = %d, want 3", got)
	}
}

func TestVoteForUnknownCard(t *testing.T) {
	m, _, _ := newTestMachine(t, Config{}, testQuestions(1), nil)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := m.VoteCard("u1", "nonexistent"); !errors.Is(err, effects.ErrUnknownCard) {
		t.Fatalf("vote for unknown card = %v, want ErrUnknownCard", err)
	}
}

func TestDeploymentFailureDiscardsTally(t *testing.T) {
	mk := func(id string) models.Card {
		return models.Card{
			ID:              id,
			Name:            id,
			Type:            models.CardTypeAlly,
			Permanence:      models.PermanencePermanent,
			VoteRequirement: 1,
			Effects: []models.EffectDef{{
				ID:         id + "_fx",
				Type:       models.EffectModifyPoints,
				Amount:     1,
				Intercepts: []models.InterceptPoint{{Component: "score", Operation: "delta"}},
				Timing:     models.TimingOnMutation,
			}},
		}
	}
	cards := []models.Card{mk("first"), mk("second")}
	cfg := Config{PassingGrade: 50, SlotCapacity: 1}
	m, _, _ := newTestMachine(t, cfg, testQuestions(3), cards)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Question 1: deploy whichever card was drawn into the only slot.
	drawn := m.VotableCards()[0].ID
	if out, err := m.VoteCard("u1", drawn); err != nil || out.Status != votes.StatusDeployed {
		t.Fatalf("deploy first card = %+v, %v", out, err)
	}
	answerWith(t, m, "b")
	if err := m.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	// Question 2: the other card is drawn, but no slot remains.
	second := m.VotableCards()
	if len(second) != 1 {
		t.Fatalf("pending after second draw = %d, want 1", len(second))
	}
	out, err := m.VoteCard("u1", second[0].ID)
	if !errors.Is(err, effects.ErrSlotsFull) {
		t.Fatalf("vote into full slots = %v, want ErrSlotsFull", err)
	}
	if out.Status != votes.StatusDeployed {
		t.Fatalf("crossing outcome = %+v", out)
	}
	if m.Context().FindPending(second[0].ID) == nil {
		t.Fatal("rejected card must stay pending")
	}
	// The tally was discarded, so the same voter can start a new tally.
	if out, _ := m.VoteCard("u1", second[0].ID); out.Status != votes.StatusDeployed {
		t.Fatalf("retry after discard = %+v, want a fresh crossing", out)
	}
}

func TestTemporaryCardAppliesAtDraw(t *testing.T) {
	cards := []models.Card{{
		ID:         "recount",
		Name:       "Recount",
		Type:       models.CardTypeEvent,
		Permanence: models.PermanenceTemporary,
		Effects: []models.EffectDef{{
			ID:     "extra_time",
			Type:   models.EffectModifyTime,
			Amount: 60,
			Timing: models.TimingOnDeploy,
		}},
	}}
	cfg := Config{GameDuration: 5 * time.Minute}
	m, rec, _ := newTestMachine(t, cfg, testQuestions(2), cards)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got := m.Context().Timer.Remaining(); got != 6*time.Minute {
		t.Fatalf("remaining after drawn time card = %v, want 6m", got)
	}
	if !rec.has(events.TypeCardDrawn) {
		t.Fatal("expected CardDrawn event")
	}
	if len(m.VotableCards()) != 0 {
		t.Fatal("temporary cards must not enter voting")
	}

	// Retires at the reveal boundary.
	answerWith(t, m, "a")
	if !rec.has(events.TypeCardsRetired) {
		t.Fatal("expected CardsRetired event")
	}
	if len(m.Context().ActiveCards) != 0 {
		t.Fatal("temporary card should be retired after reveal")
	}
}

func TestOptionExhaustionForcesIncorrect(t *testing.T) {
	cards := []models.Card{{
		ID:         "blackout",
		Name:       "Blackout",
		Type:       models.CardTypeHostile,
		Permanence: models.PermanenceTemporary,
		Effects: []models.EffectDef{{
			ID:     "wipe",
			Type:   models.EffectEliminateOptions,
			Amount: 4,
			Target: "any",
			Timing: models.TimingOnDeploy,
		}},
	}}
	m, rec, _ := newTestMachine(t, Config{}, testQuestions(2), cards)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if m.Phase() != state.PhaseAnswerReveal {
		t.Fatalf("phase = %s, want forced reveal after option wipe", m.Phase())
	}
	ctx := m.Context()
	if ctx.TotalAnswered != 1 || ctx.CorrectAnswers != 0 || ctx.Score != 0 {
		t.Fatalf("answered=%d correct=%d score=%d, want 1/0/0", ctx.TotalAnswered, ctx.CorrectAnswers, ctx.Score)
	}
	if !rec.has(events.TypeAnswerLocked) {
		t.Fatal("expected AnswerLocked event")
	}
}

func TestCampaignPhaseFlow(t *testing.T) {
	cfg := Config{Mode: models.GameModeCampaign, PassingGrade: 1}
	m, _, _ := newTestMachine(t, cfg, testQuestions(1), nil)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	answerWith(t, m, "a")
	if err := m.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if m.Phase() != state.PhaseGameOver {
		t.Fatalf("phase = %s, want %s", m.Phase(), state.PhaseGameOver)
	}

	if err := m.ReturnToIdle(1); !errors.Is(err, ErrInvalidPhase) {
		t.Fatal("campaign games must pass through the store")
	}
	if err := m.EnterStore(); err != nil {
		t.Fatalf("EnterStore: %v", err)
	}
	if err := m.EnterCampaignMap(); err != nil {
		t.Fatalf("EnterCampaignMap: %v", err)
	}
	oldID := m.Context().GameID
	if err := m.ReturnToIdle(42); err != nil {
		t.Fatalf("ReturnToIdle: %v", err)
	}
	if m.Phase() != state.PhaseIdle {
		t.Fatalf("phase = %s, want %s", m.Phase(), state.PhaseIdle)
	}
	if _, ok := m.Result(); ok {
		t.Fatal("result must clear on reset")
	}
	if m.Context().GameID == oldID {
		t.Fatal("reset should mint a new game id")
	}
}

func TestNormalModeResetsDirectly(t *testing.T) {
	m, _, _ := newTestMachine(t, Config{PassingGrade: 1}, testQuestions(1), nil)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	answerWith(t, m, "a")
	if err := m.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if err := m.EnterStore(); !errors.Is(err, ErrInvalidPhase) {
		t.Fatal("normal games have no store")
	}
	if err := m.ReturnToIdle(7); err != nil {
		t.Fatalf("ReturnToIdle: %v", err)
	}
	if m.Phase() != state.PhaseIdle {
		t.Fatalf("phase = %s, want %s", m.Phase(), state.PhaseIdle)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("restart after reset: %v", err)
	}
}

func TestSnapshotCarriesSubmissionsAndTallies(t *testing.T) {
	cards := []models.Card{{
		ID:              "union_backing",
		Name:            "Union Backing",
		Type:            models.CardTypeAlly,
		Permanence:      models.PermanencePermanent,
		VoteRequirement: 2,
		Effects: []models.EffectDef{{
			ID:         "plus_one",
			Type:       models.EffectModifyPoints,
			Amount:     1,
			Intercepts: []models.InterceptPoint{{Component: "score", Operation: "delta"}},
			Timing:     models.TimingOnMutation,
		}},
	}}
	m, _, _ := newTestMachine(t, Config{PassingGrade: 10}, testQuestions(2), cards)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := m.SubmitAnswer("u1", "a"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if _, err := m.VoteCard("u1", "union_backing"); err != nil {
		t.Fatalf("VoteCard: %v", err)
	}

	snap := m.Snapshot()
	if got := snap.Consensus.Submissions["u1"]; got != "a" {
		t.Fatalf("snapshot submission = %q, want %q", got, "a")
	}
	if snap.Consensus.Locked {
		t.Fatal("one submission must not lock in the snapshot")
	}
	tally, ok := snap.Votes["union_backing"]
	if !ok || tally.Count != 1 || tally.Required != 2 || tally.Deployed {
		t.Fatalf("snapshot tally = %+v (present=%v), want 1 of 2 undeployed", tally, ok)
	}

	// Locking shows up in the next snapshot; tallies reset with the question.
	if err := m.SubmitAnswer("u2", "a"); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	snap = m.Snapshot()
	if !snap.Consensus.Locked || snap.Consensus.LockedChoice != "a" {
		t.Fatalf("snapshot consensus after lock = %+v", snap.Consensus)
	}
	if err := m.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	snap = m.Snapshot()
	if len(snap.Consensus.Submissions) != 0 || len(snap.Votes) != 0 {
		t.Fatalf("snapshot must reset with the question, got %+v / %+v", snap.Consensus, snap.Votes)
	}
}

func TestAnswerOutsidePhase(t *testing.T) {
	m, _, _ := newTestMachine(t, Config{}, testQuestions(1), nil)
	if err := m.SubmitAnswer("u1", "a"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("answer while idle = %v, want ErrInvalidPhase", err)
	}
	if _, err := m.VoteCard("u1", "x"); !errors.Is(err, ErrInvalidPhase) {
		t.Fatalf("vote while idle = %v, want ErrInvalidPhase", err)
	}
}
