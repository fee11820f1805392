package models

// EffectType identifies the concrete behavior of a card effect. Interceptor
// types transform values flowing through the effect pipeline; one-shot types
// are applied exactly once at deployment.
type EffectType string

const (
	// Interceptor effects.
	EffectModifyPoints   EffectType = "modify_points"
	EffectMultiplyPoints EffectType = "multiply_points"
	EffectSetPoints      EffectType = "set_points"

	// One-shot deploy effects.
	EffectModifyTime            EffectType = "modify_time"
	EffectAddScore              EffectType = "add_score"
	EffectEliminateOptions      EffectType = "eliminate_options"
	EffectBanCardType           EffectType = "ban_card_type"
	EffectCounterCard           EffectType = "counter_card"
	EffectAddSlots              EffectType = "add_slots"
	EffectModifyVoteRequirement EffectType = "modify_vote_requirement"
)

// EffectTiming defines when an interceptor runs relative to the operation it
// intercepts. One-shot effects use TimingOnDeploy.
type EffectTiming string

const (
	TimingBefore     EffectTiming = "before"
	TimingAfter      EffectTiming = "after"
	TimingOnMutation EffectTiming = "on_mutation"
	TimingOnDeploy   EffectTiming = "on_deploy"
)

// InterceptPoint names a (component, operation) pair an effect hooks into.
type InterceptPoint struct {
	Component string `json:"component"`
	Operation string `json:"operation"`
}

// ConditionOp is a comparison applied to the value flowing through the
// pipeline at the moment an interceptor would run.
type ConditionOp string

const (
	CondEq  ConditionOp = "eq"
	CondNe  ConditionOp = "ne"
	CondGt  ConditionOp = "gt"
	CondLt  ConditionOp = "lt"
	CondGe  ConditionOp = "ge"
	CondLe  ConditionOp = "le"
	CondAll ConditionOp = "all"
	CondAny ConditionOp = "any"
	CondNot ConditionOp = "not"
)

// Condition guards an interceptor. An unmet condition skips the interceptor
// without disturbing the rest of the pipeline.
type Condition struct {
	Op         ConditionOp `json:"op"`
	Value      float64     `json:"value,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`
}

// EffectDef is the data description of a single card effect. Which fields
// are meaningful depends on Type; content validation rejects definitions
// whose required fields are missing.
type EffectDef struct {
	ID         string           `json:"id"`
	Type       EffectType       `json:"type"`
	Amount     int              `json:"amount,omitempty"`
	Factor     float64          `json:"factor,omitempty"`
	Value      *float64         `json:"value,omitempty"`
	Target     string           `json:"target,omitempty"`
	Intercepts []InterceptPoint `json:"intercepts,omitempty"`
	Timing     EffectTiming     `json:"timing"`
	Priority   int              `json:"priority"`
	Condition  *Condition       `json:"condition,omitempty"`
}

// OneShot reports whether the effect applies once at deployment rather than
// through the interceptor pipeline.
func (e *EffectDef) OneShot() bool {
	return e.Timing == TimingOnDeploy
}
