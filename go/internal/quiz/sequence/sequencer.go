// Package sequence orders and serves the questions for a single game.
package sequence

import (
	"github.com/cgqgames/cgq/go/internal/models"
	"github.com/cgqgames/cgq/go/internal/quiz/random"
)

const optionLabels = "abcdefghij"

// Sequencer owns the question order for one game. It deep-copies the source
// questions so elimination effects on the served copies never touch loaded
// content. The index only moves forward; once it reaches the question count
// the sequencer is exhausted and stays that way.
type Sequencer struct {
	questions []models.Question
	index     int
}

// New builds a sequencer over src. When shuffleQuestions is set the question
// order is randomized; when shuffleOptions is set each question's options
// are randomized and re-labelled a, b, c, ... so chat answers still map to
// single letters.
func New(src []models.Question, rnd *random.Randomizer, shuffleQuestions, shuffleOptions bool) *Sequencer {
	questions := make([]models.Question, len(src))
	for i, q := range src {
		q.Options = append([]models.Option(nil), q.Options...)
		questions[i] = q
	}

	if shuffleQuestions {
		rnd.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}
	if shuffleOptions {
		for i := range questions {
			opts := questions[i].Options
			rnd.Shuffle(len(opts), func(a, b int) {
				opts[a], opts[b] = opts[b], opts[a]
			})
			relabel(opts)
		}
	}

	return &Sequencer{questions: questions}
}

// relabel reassigns option ids in serving order.
func relabel(opts []models.Option) {
	for i := range opts {
		if i < len(optionLabels) {
			opts[i].ID = string(optionLabels[i])
		}
	}
}

// Len returns the total number of questions.
func (s *Sequencer) Len() int {
	return len(s.questions)
}

// Index returns the current position; equal to Len when exhausted.
func (s *Sequencer) Index() int {
	return s.index
}

// Current returns the question being served, or nil once exhausted.
func (s *Sequencer) Current() *models.Question {
	if s.index >= len(s.questions) {
		return nil
	}
	return &s.questions[s.index]
}

// Advance moves to the next question and returns it, or nil when the
// sequence is exhausted. The index never moves past Len.
func (s *Sequencer) Advance() *models.Question {
	if s.index < len(s.questions) {
		s.index++
	}
	return s.Current()
}

// Exhausted reports whether all questions have been served.
func (s *Sequencer) Exhausted() bool {
	return s.index >= len(s.questions)
}

// Questions returns the full ordered list, for snapshots.
func (s *Sequencer) Questions() []models.Question {
	return s.questions
}
