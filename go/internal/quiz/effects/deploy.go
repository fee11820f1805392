package effects

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cgqgames/cgq/go/internal/models"
	"github.com/cgqgames/cgq/go/internal/quiz/state"
)

// Deploy activates a card. Permanent cards must win a free slot or the
// deployment fails with ErrSlotsFull and the context is left untouched.
// Temporary cards never consume a slot. Interceptor effects are registered
// and one-shot effects applied synchronously, in the order declared on the
// card.
func (e *Engine) Deploy(ctx *state.GameContext, card *models.Card) (*state.DeployedCard, error) {
	slot := -1
	if card.Permanence == models.PermanencePermanent {
		slot = ctx.NextFreeSlot()
		if slot < 0 {
			return nil, fmt.Errorf("deploy %s: %w", card.ID, ErrSlotsFull)
		}
	}

	d := &state.DeployedCard{
		DeploymentID: uuid.New(),
		Card:         card,
		Slot:         slot,
		DeployedAt:   ctx.QuestionIndex(),
	}
	ctx.ActiveCards = append(ctx.ActiveCards, d)
	e.Register(d)

	for i := range card.Effects {
		def := &card.Effects[i]
		if !def.OneShot() {
			continue
		}
		if err := e.applyOneShot(ctx, card, def); err != nil {
			log.Warn().
				Err(err).
				Str("card_id", card.ID).
				Str("effect_id", def.ID).
				Msg("one-shot effect skipped")
		}
	}

	log.Info().
		Str("card_id", card.ID).
		Str("deployment_id", d.DeploymentID.String()).
		Int("slot", d.Slot).
		Msg("card deployed")
	return d, nil
}

// applyOneShot executes a single deploy-time effect. Errors are recoverable:
// the effect becomes a no-op and the rest of the card still applies.
func (e *Engine) applyOneShot(ctx *state.GameContext, card *models.Card, def *models.EffectDef) error {
	switch def.Type {
	case models.EffectModifyTime:
		// Timer delta requests pass through the mutate pipeline so other
		// cards can intercept them.
		v, _ := e.Mutate("timer", "adjust", Int(0), Int(def.Amount))
		secs, _ := v.AsInt()
		ctx.Timer.Adjust(time.Duration(secs) * time.Second)
		return nil

	case models.EffectAddScore:
		v, _ := e.Mutate("score", "delta", Int(ctx.Score), Int(def.Amount))
		delta, _ := v.AsInt()
		ctx.Score += delta
		return nil

	case models.EffectEliminateOptions:
		return e.eliminateOptions(ctx, def)

	case models.EffectBanCardType:
		t := models.CardType(def.Target)
		if !t.Valid() {
			return fmt.Errorf("ban of unknown card type %q: %w", def.Target, ErrMalformedEffect)
		}
		ctx.BannedTypes[t] = struct{}{}
		return nil

	case models.EffectCounterCard:
		// A card that declares a counter list may only strike what it lists.
		if len(card.Counters) > 0 && !card.CanCounter(def.Target) {
			return fmt.Errorf("%s does not declare %s as counterable: %w", card.ID, def.Target, ErrMalformedEffect)
		}
		target := ctx.FindDeployed(def.Target)
		if target == nil {
			return fmt.Errorf("counter target %q not deployed: %w", def.Target, ErrUnknownCard)
		}
		if !target.Countered {
			target.Countered = true
			e.Unregister(target.DeploymentID)
		}
		return nil

	case models.EffectAddSlots:
		if def.Amount <= 0 {
			return fmt.Errorf("add_slots with non-positive amount: %w", ErrMalformedEffect)
		}
		ctx.SlotCapacity += def.Amount
		return nil

	case models.EffectModifyVoteRequirement:
		if def.Target == "" {
			return fmt.Errorf("modify_vote_requirement without target: %w", ErrMalformedEffect)
		}
		if _, ok := ctx.VoteRequirements[def.Target]; !ok {
			pending := ctx.FindPending(def.Target)
			if pending == nil {
				return fmt.Errorf("vote requirement target %q: %w", def.Target, ErrUnknownCard)
			}
			ctx.VoteRequirements[def.Target] = pending.VoteRequirement
		}
		ctx.VoteRequirements[def.Target] += def.Amount
		return nil
	}

	return fmt.Errorf("effect type %q is not a one-shot: %w", def.Type, ErrMalformedEffect)
}

// eliminateOptions removes up to Amount options from the current question.
// With target "wrong" (the default) only incorrect options are removable;
// hostile cards use target "any" and can strip the correct option too.
func (e *Engine) eliminateOptions(ctx *state.GameContext, def *models.EffectDef) error {
	q := ctx.CurrentQuestion()
	if q == nil {
		return fmt.Errorf("eliminate_options with no active question: %w", ErrMalformedEffect)
	}
	if def.Amount <= 0 {
		return fmt.Errorf("eliminate_options with non-positive count: %w", ErrMalformedEffect)
	}

	anyOption := def.Target == "any"
	candidates := make([]int, 0, len(q.Options))
	for i, opt := range q.Options {
		if anyOption || !opt.Correct {
			candidates = append(candidates, i)
		}
	}
	e.rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	n := def.Amount
	if n > len(candidates) {
		n = len(candidates)
	}
	doomed := make(map[int]bool, n)
	for _, idx := range candidates[:n] {
		doomed[idx] = true
	}

	kept := q.Options[:0]
	for i, opt := range q.Options {
		if !doomed[i] {
			kept = append(kept, opt)
		}
	}
	q.Options = kept
	return nil
}

// RetireTemporaries removes every temporary deployment at a question
// boundary and unregisters their interceptors. Returns the retired card ids.
func (e *Engine) RetireTemporaries(ctx *state.GameContext) []string {
	var retired []string
	kept := ctx.ActiveCards[:0]
	for _, d := range ctx.ActiveCards {
		if d.Temporary() {
			e.Unregister(d.DeploymentID)
			retired = append(retired, d.Card.ID)
			continue
		}
		kept = append(kept, d)
	}
	ctx.ActiveCards = kept
	return retired
}

// RemoveDeployed takes an explicitly used or removed permanent card out of
// play, freeing its slot.
func (e *Engine) RemoveDeployed(ctx *state.GameContext, cardID string) error {
	for i, d := range ctx.ActiveCards {
		if d.Card.ID == cardID {
			e.Unregister(d.DeploymentID)
			ctx.ActiveCards = append(ctx.ActiveCards[:i], ctx.ActiveCards[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("remove %s: %w", cardID, ErrUnknownCard)
}
