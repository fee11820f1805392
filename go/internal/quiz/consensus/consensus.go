// Package consensus resolves chat answer submissions into a single locked
// choice once enough distinct participants agree.
package consensus

import (
	"errors"
	"strings"
)

// DefaultThreshold is the number of agreeing participants that locks an
// answer when no explicit threshold is configured.
const DefaultThreshold = 2

var (
	// ErrAlreadyLocked rejects submissions after the answer is locked.
	ErrAlreadyLocked = errors.New("consensus already locked")
	// ErrInvalidChoice rejects submissions outside the valid option set.
	ErrInvalidChoice = errors.New("invalid choice")
)

// State is a copy of the manager's current position, for snapshots.
type State struct {
	Submissions  map[string]string `json:"submissions"`
	Locked       bool              `json:"locked"`
	LockedChoice string            `json:"locked_choice,omitempty"`
}

// Manager tracks one choice per participant for the current question.
// Re-submission overwrites (last write wins). The first distinct choice, in
// insertion order, to reach the threshold locks.
type Manager struct {
	threshold    int
	valid        map[string]struct{}
	submissions  map[string]string
	choiceOrder  []string
	locked       bool
	lockedChoice string
}

// New creates a manager; threshold values below one fall back to
// DefaultThreshold.
func New(threshold int) *Manager {
	if threshold < 1 {
		threshold = DefaultThreshold
	}
	m := &Manager{threshold: threshold}
	m.Reset(nil)
	return m
}

// Reset clears all submissions and the lock for the next question and
// installs its valid choice set. Idempotent.
func (m *Manager) Reset(validChoices []string) {
	m.submissions = make(map[string]string)
	m.choiceOrder = nil
	m.locked = false
	m.lockedChoice = ""
	m.SetChoices(validChoices)
}

// SetChoices replaces the valid choice set without touching submissions.
// Called when elimination effects shrink the current question's options.
func (m *Manager) SetChoices(validChoices []string) {
	m.valid = make(map[string]struct{}, len(validChoices))
	for _, c := range validChoices {
		m.valid[strings.ToLower(c)] = struct{}{}
	}
}

// Submit records a participant's choice. The raw choice is case-folded and
// trimmed before validation. Returns ErrAlreadyLocked or ErrInvalidChoice
// without mutating state on rejection.
func (m *Manager) Submit(participantID, rawChoice string) error {
	if m.locked {
		return ErrAlreadyLocked
	}

	choice := strings.ToLower(strings.TrimSpace(rawChoice))
	if _, ok := m.valid[choice]; !ok {
		return ErrInvalidChoice
	}

	if !m.choiceKnown(choice) {
		m.choiceOrder = append(m.choiceOrder, choice)
	}
	m.submissions[participantID] = choice

	m.evaluate()
	return nil
}

func (m *Manager) choiceKnown(choice string) bool {
	for _, c := range m.choiceOrder {
		if c == choice {
			return true
		}
	}
	return false
}

// evaluate locks on the first distinct choice, in insertion order, whose
// agreement count has reached the threshold.
func (m *Manager) evaluate() {
	counts := m.counts()
	for _, choice := range m.choiceOrder {
		if counts[choice] >= m.threshold {
			m.locked = true
			m.lockedChoice = choice
			return
		}
	}
}

func (m *Manager) counts() map[string]int {
	counts := make(map[string]int, len(m.choiceOrder))
	for _, c := range m.submissions {
		counts[c]++
	}
	return counts
}

// ForceLock locks the question on the given choice without any
// participation, used for timer expiry and option exhaustion. An empty
// choice is an automatic incorrect lock.
func (m *Manager) ForceLock(choice string) {
	if m.locked {
		return
	}
	m.locked = true
	m.lockedChoice = strings.ToLower(choice)
}

// Locked reports whether an answer is locked for the current question.
func (m *Manager) Locked() bool {
	return m.locked
}

// LockedChoice returns the locked choice and whether one exists.
func (m *Manager) LockedChoice() (string, bool) {
	if !m.locked || m.lockedChoice == "" {
		return "", false
	}
	return m.lockedChoice, true
}

// Snapshot returns a copy of the manager state for presentation.
func (m *Manager) Snapshot() State {
	subs := make(map[string]string, len(m.submissions))
	for pid, c := range m.submissions {
		subs[pid] = c
	}
	return State{Submissions: subs, Locked: m.locked, LockedChoice: m.lockedChoice}
}
