// Package effects interprets data-defined card effects against the game
// state. Every game-relevant read and write flows through the engine's
// query/mutate pipeline, which is what lets cards be written as plain data:
// an effect declares the (component, operation) pairs it intercepts and the
// engine composes all matching interceptors in priority order.
package effects

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cgqgames/cgq/go/internal/models"
	"github.com/cgqgames/cgq/go/internal/quiz/random"
	"github.com/cgqgames/cgq/go/internal/quiz/state"
)

type pipelineKind int

const (
	pipelineQuery pipelineKind = iota
	pipelineMutation
)

// knownPoints enumerates every interception point the engine understands.
// Keeping this closed makes every possible interception testable.
var knownPoints = map[models.InterceptPoint]pipelineKind{
	{Component: "score", Operation: "delta"}:     pipelineMutation,
	{Component: "timer", Operation: "adjust"}:    pipelineMutation,
	{Component: "question", Operation: "points"}: pipelineQuery,
}

// binding is one registered interceptor instance.
type binding struct {
	deploymentID uuid.UUID
	cardID       string
	def          *models.EffectDef
	seq          int
}

// Engine holds the interceptor registry and owns card/slot lifecycle policy.
type Engine struct {
	rnd      *random.Randomizer
	registry map[models.InterceptPoint][]*binding
	seq      int
}

// New creates an engine with no registered effects.
func New(rnd *random.Randomizer) *Engine {
	return &Engine{
		rnd:      rnd,
		registry: make(map[models.InterceptPoint][]*binding),
	}
}

// Register installs a deployed card's interceptor effects. One-shot effects
// are not registered here; Deploy applies them. Interceptors referencing an
// unknown (component, operation) pair are skipped with a warning.
func (e *Engine) Register(d *state.DeployedCard) {
	for i := range d.Card.Effects {
		def := &d.Card.Effects[i]
		if def.OneShot() {
			continue
		}
		for _, pt := range def.Intercepts {
			if _, ok := knownPoints[pt]; !ok {
				log.Warn().
					Str("card_id", d.Card.ID).
					Str("effect_id", def.ID).
					Str("component", pt.Component).
					Str("operation", pt.Operation).
					Msg("effect intercepts unknown component operation, skipping interceptor")
				continue
			}
			e.seq++
			e.registry[pt] = append(e.registry[pt], &binding{
				deploymentID: d.DeploymentID,
				cardID:       d.Card.ID,
				def:          def,
				seq:          e.seq,
			})
			e.sortPoint(pt)
		}
	}
}

// Unregister removes every interceptor of a deployment. Countered cards stay
// in their slot but their effects go inert through this.
func (e *Engine) Unregister(deploymentID uuid.UUID) {
	for pt, list := range e.registry {
		kept := list[:0]
		for _, b := range list {
			if b.deploymentID != deploymentID {
				kept = append(kept, b)
			}
		}
		if len(kept) == 0 {
			delete(e.registry, pt)
		} else {
			e.registry[pt] = kept
		}
	}
}

// sortPoint keeps a point's interceptors ordered by priority (higher first)
// then registration order, so composition is deterministic.
func (e *Engine) sortPoint(pt models.InterceptPoint) {
	list := e.registry[pt]
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].def.Priority != list[j].def.Priority {
			return list[i].def.Priority > list[j].def.Priority
		}
		return list[i].seq < list[j].seq
	})
}

// Query computes the final value of a component read: the base result from
// the owning component, transformed by all matching before interceptors,
// then all matching after interceptors, each receiving the previous
// interceptor's output.
func (e *Engine) Query(component, operation string, base Value) (Value, error) {
	pt := models.InterceptPoint{Component: component, Operation: operation}
	kind, ok := knownPoints[pt]
	if !ok || kind != pipelineQuery {
		return base, fmt.Errorf("query %s.%s: %w", component, operation, ErrUnknownComponentOperation)
	}

	v := e.applyTimed(pt, models.TimingBefore, base)
	v = e.applyTimed(pt, models.TimingAfter, v)
	return v, nil
}

// Mutate runs a proposed new value through all matching on_mutation
// interceptors, in priority order, and returns what should be committed.
func (e *Engine) Mutate(component, operation string, old, proposed Value) (Value, error) {
	pt := models.InterceptPoint{Component: component, Operation: operation}
	kind, ok := knownPoints[pt]
	if !ok || kind != pipelineMutation {
		return proposed, fmt.Errorf("mutate %s.%s: %w", component, operation, ErrUnknownComponentOperation)
	}

	return e.applyTimed(pt, models.TimingOnMutation, proposed), nil
}

// applyTimed folds the value through the point's interceptors of one timing.
// Interceptors with an unmet condition are skipped without affecting the
// ordering of the rest.
func (e *Engine) applyTimed(pt models.InterceptPoint, timing models.EffectTiming, v Value) Value {
	for _, b := range e.registry[pt] {
		if b.def.Timing != timing {
			continue
		}
		if !evalCondition(b.def.Condition, v) {
			continue
		}
		next, err := transform(b.def, v)
		if err != nil {
			log.Warn().
				Err(err).
				Str("card_id", b.cardID).
				Str("effect_id", b.def.ID).
				Msg("interceptor failed, treating as no-op")
			continue
		}
		v = next
	}
	return v
}

// transform applies one interceptor's value transformation.
func transform(def *models.EffectDef, v Value) (Value, error) {
	switch def.Type {
	case models.EffectModifyPoints:
		n, ok := v.AsInt()
		if !ok {
			return v, fmt.Errorf("modify_points on non-numeric value: %w", ErrMalformedEffect)
		}
		return Int(n + def.Amount), nil

	case models.EffectMultiplyPoints:
		f, ok := v.AsFloat()
		if !ok {
			return v, fmt.Errorf("multiply_points on non-numeric value: %w", ErrMalformedEffect)
		}
		return Int(int(f * def.Factor)), nil

	case models.EffectSetPoints:
		if def.Value == nil {
			return v, fmt.Errorf("set_points without value: %w", ErrMalformedEffect)
		}
		return Int(int(*def.Value)), nil
	}

	return v, fmt.Errorf("effect type %q is not an interceptor: %w", def.Type, ErrMalformedEffect)
}

// evalCondition checks an interceptor guard against the value currently
// flowing through the pipeline. A nil condition always passes.
func evalCondition(c *models.Condition, v Value) bool {
	if c == nil {
		return true
	}

	switch c.Op {
	case models.CondAll:
		for i := range c.Conditions {
			if !evalCondition(&c.Conditions[i], v) {
				return false
			}
		}
		return true
	case models.CondAny:
		for i := range c.Conditions {
			if evalCondition(&c.Conditions[i], v) {
				return true
			}
		}
		return false
	case models.CondNot:
		if len(c.Conditions) != 1 {
			return false
		}
		return !evalCondition(&c.Conditions[0], v)
	}

	f, ok := v.AsFloat()
	if !ok {
		return false
	}
	switch c.Op {
	case models.CondEq:
		return f == c.Value
	case models.CondNe:
		return f != c.Value
	case models.CondGt:
		return f > c.Value
	case models.CondLt:
		return f < c.Value
	case models.CondGe:
		return f >= c.Value
	case models.CondLe:
		return f <= c.Value
	}
	return false
}
