package models

// CardType defines the category of a card. Resistance, ally and political
// cards are positive (help the crowd); hostile and event cards work against
// it.
type CardType string

const (
	CardTypeResistance CardType = "resistance"
	CardTypeAlly       CardType = "ally"
	CardTypePolitical  CardType = "political"
	CardTypeHostile    CardType = "hostile"
	CardTypeEvent      CardType = "event"
)

// Positive reports whether the card type belongs to the helpful categories.
func (t CardType) Positive() bool {
	switch t {
	case CardTypeResistance, CardTypeAlly, CardTypePolitical:
		return true
	}
	return false
}

// Valid reports whether the card type is one of the known categories.
func (t CardType) Valid() bool {
	switch t {
	case CardTypeResistance, CardTypeAlly, CardTypePolitical, CardTypeHostile, CardTypeEvent:
		return true
	}
	return false
}

// Permanence defines how long a deployed card stays in play.
type Permanence string

const (
	// PermanencePermanent cards occupy a slot until removed or countered.
	PermanencePermanent Permanence = "permanent"
	// PermanenceTemporary cards apply once and retire at the next question
	// boundary without consuming a slot.
	PermanenceTemporary Permanence = "temporary"
)

// Card is an immutable content definition. Only deployment state is mutable,
// and that lives outside this struct.
type Card struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Type            CardType    `json:"type"`
	Permanence      Permanence  `json:"permanence"`
	Description     string      `json:"description,omitempty"`
	Cost            int         `json:"cost,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	VoteRequirement int         `json:"vote_requirement"`
	Counters        []string    `json:"counters,omitempty"`
	CounteredBy     []string    `json:"countered_by,omitempty"`
	Effects         []EffectDef `json:"effects"`
}

// CanCounter reports whether this card declares target as counterable.
func (c *Card) CanCounter(targetID string) bool {
	for _, id := range c.Counters {
		if id == targetID {
			return true
		}
	}
	return false
}
