package votes

import "testing"

func TestDeploysOnThirdDistinctVote(t *testing.T) {
	m := New()

	out := m.CastVote("u1", "card", 3)
	if out.Status != StatusPending || out.Count != 1 || out.Required != 3 {
		t.Fatalf("unexpected first outcome: %+v", out)
	}
	out = m.CastVote("u2", "card", 3)
	if out.Status != StatusPending || out.Count != 2 {
		t.Fatalf("unexpected second outcome: %+v", out)
	}
	out = m.CastVote("u3", "card", 3)
	if out.Status != StatusDeployed || out.Count != 3 {
		t.Fatalf("expected deployment on third vote, got %+v", out)
	}
}

func TestDuplicateVoteIsNoop(t *testing.T) {
	m := New()
	m.CastVote("u1", "card", 3)

	out := m.CastVote("u1", "card", 3)
	if out.Status != StatusPending || out.Count != 1 {
		t.Fatalf("duplicate vote must not change the count: %+v", out)
	}
}

func TestDuplicateAfterDeployment(t *testing.T) {
	m := New()
	m.CastVote("u1", "card", 3)
	m.CastVote("u2", "card", 3)
	m.CastVote("u3", "card", 3)

	out := m.CastVote("u1", "card", 3)
	if out.Status != StatusAlreadyDeployed || out.Count != 3 {
		t.Fatalf("expected stable already-deployed state, got %+v", out)
	}
}

func TestDeployedSignalledOncePerCrossing(t *testing.T) {
	m := New()
	m.CastVote("u1", "card", 2)
	out := m.CastVote("u2", "card", 2)
	if out.Status != StatusDeployed {
		t.Fatalf("expected crossing on second vote, got %+v", out)
	}

	out = m.CastVote("u3", "card", 2)
	if out.Status != StatusAlreadyDeployed {
		t.Fatalf("crossing must be signalled once, got %+v", out)
	}
}

func TestZeroOrNegativeRequirementDeploysImmediately(t *testing.T) {
	m := New()
	out := m.CastVote("u1", "free", 0)
	if out.Status != StatusDeployed {
		t.Fatalf("zero requirement should deploy on first vote, got %+v", out)
	}

	out = m.CastVote("u1", "bonus", -2)
	if out.Status != StatusDeployed {
		t.Fatalf("negative requirement should deploy on first vote, got %+v", out)
	}
}

func TestRequirementSnapshottedAtFirstVote(t *testing.T) {
	m := New()
	m.CastVote("u1", "card", 3)

	// The card's live requirement dropped to 1 after the tally opened; the
	// in-progress tally keeps its snapshot.
	out := m.CastVote("u2", "card", 1)
	if out.Status != StatusPending || out.Required != 3 {
		t.Fatalf("requirement must not change retroactively: %+v", out)
	}
}

func TestIndependentTallies(t *testing.T) {
	m := New()
	m.CastVote("u1", "first", 2)
	out := m.CastVote("u1", "second", 2)
	if out.Status != StatusPending || out.Count != 1 {
		t.Fatalf("tallies must be independent per card: %+v", out)
	}
}

func TestResetIdempotent(t *testing.T) {
	m := New()
	m.CastVote("u1", "card", 1)

	m.Reset()
	m.Reset()

	if _, _, ok := m.TallyFor("card"); ok {
		t.Fatal("reset must clear tallies")
	}
	out := m.CastVote("u1", "card", 2)
	if out.Status != StatusPending || out.Count != 1 {
		t.Fatalf("voting after reset should start fresh: %+v", out)
	}
}

func TestClearDiscardsSingleTally(t *testing.T) {
	m := New()
	m.CastVote("u1", "first", 2)
	m.CastVote("u1", "second", 2)

	m.Clear("first")

	if _, _, ok := m.TallyFor("first"); ok {
		t.Fatal("cleared tally should be gone")
	}
	if _, _, ok := m.TallyFor("second"); !ok {
		t.Fatal("other tallies must survive a clear")
	}
	out := m.CastVote("u2", "first", 2)
	if out.Status != StatusPending || out.Count != 1 {
		t.Fatalf("voting after clear should start fresh: %+v", out)
	}
}
