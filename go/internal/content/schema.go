// Package content loads card sets and question sets from YAML files and
// validates them into game models.
package content

// SetMetadata describes one content file.
type SetMetadata struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
}

// CardSet is the on-disk shape of a card file.
type CardSet struct {
	Metadata SetMetadata `yaml:"metadata"`
	Cards    []CardSpec  `yaml:"cards"`
}

// CardSpec is one card as authored.
type CardSpec struct {
	ID              string       `yaml:"id"`
	Name            string       `yaml:"name"`
	Type            string       `yaml:"type"`
	Permanence      string       `yaml:"permanence"`
	VoteRequirement int          `yaml:"vote_requirement"`
	Cost            int          `yaml:"cost"`
	Description     string       `yaml:"description"`
	Tags            []string     `yaml:"tags"`
	Counters        []string     `yaml:"counters"`
	CounteredBy     []string     `yaml:"countered_by"`
	Effects         []EffectSpec `yaml:"effects"`
}

// EffectSpec is one effect as authored. Parameter fields are flattened next
// to the type rather than nested.
type EffectSpec struct {
	ID         string         `yaml:"id"`
	Type       string         `yaml:"type"`
	Amount     int            `yaml:"amount"`
	Factor     float64        `yaml:"factor"`
	Value      *float64       `yaml:"value"`
	Target     string         `yaml:"target"`
	Intercepts []InterceptSpec `yaml:"intercepts"`
	Timing     string         `yaml:"timing"`
	Priority   int            `yaml:"priority"`
	Condition  *ConditionSpec `yaml:"condition"`
}

// InterceptSpec names the pipeline an interceptor hooks into.
type InterceptSpec struct {
	Component string `yaml:"component"`
	Operation string `yaml:"operation"`
}

// ConditionSpec guards an effect; op "all", "any" and "not" nest.
type ConditionSpec struct {
	Op         string          `yaml:"op"`
	Value      float64         `yaml:"value"`
	Conditions []ConditionSpec `yaml:"conditions"`
}

// QuestionSet is the on-disk shape of a question file.
type QuestionSet struct {
	Metadata  SetMetadata    `yaml:"metadata"`
	Questions []QuestionSpec `yaml:"questions"`
}

// QuestionSpec is one question as authored. Points defaults to one.
type QuestionSpec struct {
	ID          string       `yaml:"id"`
	Text        string       `yaml:"text"`
	Options     []OptionSpec `yaml:"options"`
	Points      *int         `yaml:"points"`
	Explanation string       `yaml:"explanation"`
	Source      string       `yaml:"source"`
	Tags        []string     `yaml:"tags"`
}

// OptionSpec is one answer choice as authored. The id is optional; missing
// ids are assigned a, b, c, ... in order.
type OptionSpec struct {
	ID      string `yaml:"id"`
	Text    string `yaml:"text"`
	Correct bool   `yaml:"correct"`
}
