package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cgqgames/cgq/go/internal/models"
)

const cardYAML = `
metadata:
  title: Test Cards
  version: "1.0"
cards:
  - id: union_backing
    name: Union Backing
    type: ally
    permanence: permanent
    vote_requirement: 2
    cost: 3
    description: Adds two points to every scoring answer.
    effects:
      - id: plus_two
        type: modify_points
        amount: 2
        timing: on_mutation
        priority: 1
        intercepts:
          - component: score
            operation: delta
        condition:
          op: gt
          value: 0
  - id: snap_poll
    name: Snap Poll
    type: event
    permanence: temporary
    effects:
      - id: cut_time
        type: modify_time
        amount: -30
        timing: on_deploy
`

const questionYAML = `
metadata:
  title: Test Questions
questions:
  - id: capital
    text: What is the capital?
    points: 2
    options:
      - text: Right answer
        correct: true
      - text: Wrong answer
      - text: Another wrong answer
  - text: Second question, default points
    options:
      - id: x
        text: Nope
      - id: y
        text: Yep
        correct: true
`

func TestParseCardSet(t *testing.T) {
	cards, err := ParseCardSet([]byte(cardYAML))
	if err != nil {
		t.Fatalf("ParseCardSet: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("len(cards) = %d, want 2", len(cards))
	}

	c := cards[0]
	if c.ID != "union_backing" || c.Type != models.CardTypeAlly || c.VoteRequirement != 2 {
		t.Fatalf("card = %+v", c)
	}
	fx := c.Effects[0]
	if fx.Type != models.EffectModifyPoints || fx.Amount != 2 || fx.Timing != models.TimingOnMutation {
		t.Fatalf("effect = %+v", fx)
	}
	if len(fx.Intercepts) != 1 || fx.Intercepts[0].Component != "score" {
		t.Fatalf("intercepts = %+v", fx.Intercepts)
	}
	if fx.Condition == nil || fx.Condition.Op != models.CondGt || fx.Condition.Value != 0 {
		t.Fatalf("condition = %+v", fx.Condition)
	}

	if cards[1].Permanence != models.PermanenceTemporary || cards[1].Effects[0].Amount != -30 {
		t.Fatalf("temporary card = %+v", cards[1])
	}
}

func TestParseQuestionSet(t *testing.T) {
	questions, err := ParseQuestionSet([]byte(questionYAML))
	if err != nil {
		t.Fatalf("ParseQuestionSet: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("len(questions) = %d, want 2", len(questions))
	}

	q := questions[0]
	if q.ID != "capital" || q.Points != 2 {
		t.Fatalf("question = %+v", q)
	}
	// Missing option ids are labeled in order.
	if q.Options[0].ID != "a" || q.Options[1].ID != "b" || q.Options[2].ID != "c" {
		t.Fatalf("option ids = %+v", q.Options)
	}
	if co := q.CorrectOption(); co == nil || co.ID != "a" {
		t.Fatalf("correct option = %+v", co)
	}

	if questions[1].ID != "q2" || questions[1].Points != 1 {
		t.Fatalf("defaults not applied: %+v", questions[1])
	}
	if questions[1].Options[1].ID != "y" {
		t.Fatalf("explicit option id lost: %+v", questions[1].Options)
	}
}

func TestParseCardSetRejections(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown effect type",
			yaml: `
cards:
  - id: c
    name: C
    type: ally
    permanence: temporary
    effects:
      - id: fx
        type: explode
        timing: on_deploy
`,
			want: "unknown effect type",
		},
		{
			name: "interceptor without intercepts",
			yaml: `
cards:
  - id: c
    name: C
    type: ally
    permanence: temporary
    effects:
      - id: fx
        type: modify_points
        amount: 1
        timing: on_mutation
`,
			want: "intercept point",
		},
		{
			name: "permanent without vote requirement",
			yaml: `
cards:
  - id: c
    name: C
    type: ally
    permanence: permanent
    effects:
      - id: fx
        type: add_score
        amount: 1
        timing: on_deploy
`,
			want: "vote requirement",
		},
		{
			name: "positive card eliminating any option",
			yaml: `
cards:
  - id: c
    name: C
    type: ally
    permanence: temporary
    effects:
      - id: fx
        type: eliminate_options
        amount: 2
        target: any
        timing: on_deploy
`,
			want: "not allowed on ally cards",
		},
		{
			name: "bad eliminate target",
			yaml: `
cards:
  - id: c
    name: C
    type: hostile
    permanence: temporary
    effects:
      - id: fx
        type: eliminate_options
        amount: 1
        target: correct
        timing: on_deploy
`,
			want: "target must be empty",
		},
		{
			name: "bad card type",
			yaml: `
cards:
  - id: c
    name: C
    type: wizard
    permanence: temporary
    effects:
      - id: fx
        type: add_score
        amount: 1
        timing: on_deploy
`,
			want: "unknown card type",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCardSet([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want substring %q", err, tc.want)
			}
		})
	}
}

func TestParseQuestionSetRejections(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no correct option",
			yaml: "questions:\n  - text: q\n    options:\n      - text: one\n      - text: two\n",
			want: "exactly one option",
		},
		{
			name: "two correct options",
			yaml: "questions:\n  - text: q\n    options:\n      - {text: one, correct: true}\n      - {text: two, correct: true}\n",
			want: "exactly one option",
		},
		{
			name: "single option",
			yaml: "questions:\n  - text: q\n    options:\n      - {text: one, correct: true}\n",
			want: "at least two options",
		},
		{
			name: "negative points",
			yaml: "questions:\n  - text: q\n    points: -1\n    options:\n      - {text: one, correct: true}\n      - {text: two}\n",
			want: "points",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseQuestionSet([]byte(tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want substring %q", err, tc.want)
			}
		})
	}
}

func TestLoadCardsDir(t *testing.T) {
	dir := t.TempDir()
	first := `
cards:
  - id: one
    name: One
    type: ally
    permanence: temporary
    effects:
      - {id: fx, type: add_score, amount: 1, timing: on_deploy}
`
	second := `
cards:
  - id: two
    name: Two
    type: hostile
    permanence: temporary
    effects:
      - {id: fx, type: modify_time, amount: -10, timing: on_deploy}
`
	writeFile(t, filepath.Join(dir, "a.yml"), first)
	writeFile(t, filepath.Join(dir, "b.yaml"), second)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	cards, err := LoadCardsDir(dir)
	if err != nil {
		t.Fatalf("LoadCardsDir: %v", err)
	}
	if len(cards) != 2 || cards[0].ID != "one" || cards[1].ID != "two" {
		t.Fatalf("cards = %+v", cards)
	}
}

func TestLoadCardsDirRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	set := `
cards:
  - id: dup
    name: Dup
    type: ally
    permanence: temporary
    effects:
      - {id: fx, type: add_score, amount: 1, timing: on_deploy}
`
	writeFile(t, filepath.Join(dir, "a.yml"), set)
	writeFile(t, filepath.Join(dir, "b.yml"), set)

	if _, err := LoadCardsDir(dir); err == nil || !strings.Contains(err.Error(), "already defined") {
		t.Fatalf("err = %v, want duplicate id rejection", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
