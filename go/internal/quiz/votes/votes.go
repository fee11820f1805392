// Package votes tracks per-card activation votes and signals when a card's
// deployment threshold is crossed.
package votes

// Status describes the result of casting a vote.
type Status string

const (
	// StatusPending means the tally has not reached its requirement.
	StatusPending Status = "PENDING"
	// StatusDeployed is returned exactly once, on the cast that crosses the
	// requirement.
	StatusDeployed Status = "DEPLOYED"
	// StatusAlreadyDeployed is returned for votes arriving after the
	// crossing.
	StatusAlreadyDeployed Status = "ALREADY_DEPLOYED"
)

// Outcome reports the tally position after a cast.
type Outcome struct {
	Status   Status `json:"status"`
	Count    int    `json:"count"`
	Required int    `json:"required"`
}

// Tally is a snapshot of one card's vote state.
type Tally struct {
	Count    int  `json:"count"`
	Required int  `json:"required"`
	Deployed bool `json:"deployed"`
}

type tally struct {
	voters   map[string]struct{}
	required int
	deployed bool
}

// Manager tracks tallies for the current question. Voter sets use set
// semantics: duplicate votes from the same participant are silently ignored.
// The requirement is snapshotted from the card's live requirement on the
// first vote; later requirement changes do not affect an in-progress tally.
type Manager struct {
	tallies map[string]*tally
}

// New creates an empty vote manager.
func New() *Manager {
	return &Manager{tallies: make(map[string]*tally)}
}

// CastVote records a participant's vote for a card. currentRequirement is
// the card's live vote requirement, consulted only when this is the first
// vote for the card this question. A requirement of zero or below deploys on
// the very first vote.
func (m *Manager) CastVote(participantID, cardID string, currentRequirement int) Outcome {
	t, ok := m.tallies[cardID]
	if !ok {
		t = &tally{voters: make(map[string]struct{}), required: currentRequirement}
		m.tallies[cardID] = t
	}

	if _, dup := t.voters[participantID]; dup {
		return m.outcome(t, StatusPending)
	}
	if t.deployed {
		t.voters[participantID] = struct{}{}
		return m.outcome(t, StatusAlreadyDeployed)
	}

	t.voters[participantID] = struct{}{}
	if len(t.voters) >= t.required {
		t.deployed = true
		return m.outcome(t, StatusDeployed)
	}
	return m.outcome(t, StatusPending)
}

func (m *Manager) outcome(t *tally, s Status) Outcome {
	if t.deployed && s == StatusPending {
		s = StatusAlreadyDeployed
	}
	return Outcome{Status: s, Count: len(t.voters), Required: t.required}
}

// TallyFor returns the current count and snapshotted requirement for a card.
// ok is false when no votes have been cast this question.
func (m *Manager) TallyFor(cardID string) (count, required int, ok bool) {
	t, ok := m.tallies[cardID]
	if !ok {
		return 0, 0, false
	}
	return len(t.voters), t.required, true
}

// Reset clears every tally for the next question. Idempotent.
func (m *Manager) Reset() {
	m.tallies = make(map[string]*tally)
}

// Clear discards the tally for one card, letting voting start over. Used
// when a threshold crossing could not be acted on.
func (m *Manager) Clear(cardID string) {
	delete(m.tallies, cardID)
}

// Snapshot returns a copy of all tallies for presentation.
func (m *Manager) Snapshot() map[string]Tally {
	out := make(map[string]Tally, len(m.tallies))
	for id, t := range m.tallies {
		out[id] = Tally{Count: len(t.voters), Required: t.required, Deployed: t.deployed}
	}
	return out
}
