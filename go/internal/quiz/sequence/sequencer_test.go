package sequence

import (
	"testing"

	"github.com/cgqgames/cgq/go/internal/models"
	"github.com/cgqgames/cgq/go/internal/quiz/random"
)

func sampleQuestions() []models.Question {
	return []models.Question{
		{
			ID:   "q1",
			Text: "first",
			Options: []models.Option{
				{ID: "a", Text: "right", Correct: true},
				{ID: "b", Text: "wrong1"},
				{ID: "c", Text: "wrong2"},
				{ID: "d", Text: "wrong3"},
			},
			Points: 2,
		},
		{
			ID:   "q2",
			Text: "second",
			Options: []models.Option{
				{ID: "a", Text: "wrong1"},
				{ID: "b", Text: "right", Correct: true},
			},
			Points: 1,
		},
		{
			ID:   "q3",
			Text: "third",
			Options: []models.Option{
				{ID: "a", Text: "right", Correct: true},
				{ID: "b", Text: "wrong1"},
			},
			Points: 3,
		},
	}
}

func TestServeInLoadedOrder(t *testing.T) {
	s := New(sampleQuestions(), random.New(1), false, false)

	if s.Len() != 3 {
		t.Fatalf("expected 3 questions, got %d", s.Len())
	}
	if got := s.Current().ID; got != "q1" {
		t.Fatalf("expected q1 first, got %s", got)
	}
	if got := s.Advance().ID; got != "q2" {
		t.Fatalf("expected q2 second, got %s", got)
	}
	if got := s.Advance().ID; got != "q3" {
		t.Fatalf("expected q3 third, got %s", got)
	}
	if q := s.Advance(); q != nil {
		t.Fatalf("expected exhaustion, got %s", q.ID)
	}
	if !s.Exhausted() {
		t.Fatal("sequencer should be exhausted")
	}
	if s.Index() != s.Len() {
		t.Fatalf("index should equal len at exhaustion, got %d", s.Index())
	}
}

func TestAdvancePastEndIsStable(t *testing.T) {
	s := New(sampleQuestions(), random.New(1), false, false)
	for i := 0; i < 10; i++ {
		s.Advance()
	}
	if s.Index() != 3 {
		t.Fatalf("index must never pass len, got %d", s.Index())
	}
}

func TestShuffleIsDeterministicPerSeed(t *testing.T) {
	a := New(sampleQuestions(), random.New(99), true, false)
	b := New(sampleQuestions(), random.New(99), true, false)

	for i, q := range a.Questions() {
		if q.ID != b.Questions()[i].ID {
			t.Fatalf("same seed produced different orders at %d", i)
		}
	}
}

func TestOptionShuffleRelabels(t *testing.T) {
	s := New(sampleQuestions(), random.New(3), false, true)

	for _, q := range s.Questions() {
		correct := 0
		for i, opt := range q.Options {
			want := string(rune('a' + i))
			if opt.ID != want {
				t.Fatalf("question %s option %d: expected id %q, got %q", q.ID, i, want, opt.ID)
			}
			if opt.Correct {
				correct++
			}
		}
		if correct != 1 {
			t.Fatalf("question %s: expected exactly one correct option, got %d", q.ID, correct)
		}
	}
}

func TestSourceQuestionsNotMutated(t *testing.T) {
	src := sampleQuestions()
	s := New(src, random.New(5), true, true)

	// Shrink a served question's options, as an elimination effect would.
	cur := s.Current()
	cur.Options = cur.Options[:1]

	for _, q := range src {
		if q.ID == cur.ID && len(q.Options) != 4 && len(q.Options) != 2 {
			t.Fatal("source question options were mutated")
		}
	}
	if src[0].Options[0].ID != "a" {
		t.Fatal("source option ids were relabelled")
	}
}
