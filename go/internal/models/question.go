package models

import "strings"

// Option is a single answer choice. Option ids are lowercase letters ("a",
// "b", ...) matching what chat participants type.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is loaded once at game start. Options may be shrunk by effects
// while the question is active; a question is never mutated after reveal.
type Question struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Options     []Option `json:"options"`
	Points      int      `json:"points"`
	Explanation string   `json:"explanation,omitempty"`
	Source      string   `json:"source,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// CorrectOption returns the option marked correct, or nil if elimination
// effects have somehow removed it. Content validation guarantees exactly one
// correct option at load time.
func (q *Question) CorrectOption() *Option {
	for i := range q.Options {
		if q.Options[i].Correct {
			return &q.Options[i]
		}
	}
	return nil
}

// IsCorrect reports whether the given option id is the correct answer.
func (q *Question) IsCorrect(optionID string) bool {
	id := strings.ToLower(strings.TrimSpace(optionID))
	for i := range q.Options {
		if q.Options[i].ID == id {
			return q.Options[i].Correct
		}
	}
	return false
}

// OptionIDs returns the ids of the currently remaining options.
func (q *Question) OptionIDs() []string {
	ids := make([]string, len(q.Options))
	for i := range q.Options {
		ids[i] = q.Options[i].ID
	}
	return ids
}
