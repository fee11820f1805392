package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/cgqgames/cgq/go/internal/models"
)

const optionLabels = "abcdefghij"

// ParseCardSet decodes and validates one card file.
func ParseCardSet(data []byte) ([]models.Card, error) {
	var set CardSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode card set: %w", err)
	}
	cards := make([]models.Card, 0, len(set.Cards))
	for i, spec := range set.Cards {
		card, err := cardToModel(spec)
		if err != nil {
			return nil, fmt.Errorf("card %d (%q): %w", i, spec.ID, err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// LoadCardSet reads and parses one card file.
func LoadCardSet(path string) ([]models.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cards, err := ParseCardSet(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cards, nil
}

// LoadCardsDir loads every .yml/.yaml file in a directory, in name order,
// and rejects duplicate card ids across files.
func LoadCardsDir(dir string) ([]models.Card, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read card dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yml" || ext == ".yaml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []models.Card
	seen := make(map[string]string)
	for _, name := range names {
		cards, err := LoadCardSet(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		for _, c := range cards {
			if prev, dup := seen[c.ID]; dup {
				return nil, fmt.Errorf("card id %q in %s already defined in %s", c.ID, name, prev)
			}
			seen[c.ID] = name
		}
		all = append(all, cards...)
		log.Debug().Str("file", name).Int("cards", len(cards)).Msg("card set loaded")
	}
	return all, nil
}

// ParseQuestionSet decodes and validates one question file.
func ParseQuestionSet(data []byte) ([]models.Question, error) {
	var set QuestionSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("decode question set: %w", err)
	}
	questions := make([]models.Question, 0, len(set.Questions))
	for i, spec := range set.Questions {
		q, err := questionToModel(spec, i)
		if err != nil {
			return nil, fmt.Errorf("question %d (%q): %w", i, spec.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// LoadQuestionSet reads and parses one question file.
func LoadQuestionSet(path string) ([]models.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	questions, err := ParseQuestionSet(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return questions, nil
}

func cardToModel(spec CardSpec) (models.Card, error) {
	if spec.ID == "" || spec.Name == "" {
		return models.Card{}, fmt.Errorf("id and name are required")
	}
	cardType := models.CardType(spec.Type)
	if !cardType.Valid() {
		return models.Card{}, fmt.Errorf("unknown card type %q", spec.Type)
	}
	permanence := models.Permanence(spec.Permanence)
	if permanence != models.PermanencePermanent && permanence != models.PermanenceTemporary {
		return models.Card{}, fmt.Errorf("unknown permanence %q", spec.Permanence)
	}
	if permanence == models.PermanencePermanent && spec.VoteRequirement < 1 {
		return models.Card{}, fmt.Errorf("permanent cards need a vote requirement of at least 1")
	}
	if len(spec.Effects) == 0 {
		return models.Card{}, fmt.Errorf("at least one effect is required")
	}

	effects := make([]models.EffectDef, 0, len(spec.Effects))
	for i, es := range spec.Effects {
		def, err := effectToModel(es, cardType)
		if err != nil {
			return models.Card{}, fmt.Errorf("effect %d (%q): %w", i, es.ID, err)
		}
		effects = append(effects, def)
	}

	return models.Card{
		ID:              spec.ID,
		Name:            spec.Name,
		Type:            cardType,
		Permanence:      permanence,
		Description:     spec.Description,
		Cost:            spec.Cost,
		Tags:            spec.Tags,
		VoteRequirement: spec.VoteRequirement,
		Counters:        spec.Counters,
		CounteredBy:     spec.CounteredBy,
		Effects:         effects,
	}, nil
}

func effectToModel(spec EffectSpec, cardType models.CardType) (models.EffectDef, error) {
	def := models.EffectDef{
		ID:        spec.ID,
		Type:      models.EffectType(spec.Type),
		Amount:    spec.Amount,
		Factor:    spec.Factor,
		Value:     spec.Value,
		Target:    spec.Target,
		Timing:    models.EffectTiming(spec.Timing),
		Priority:  spec.Priority,
		Condition: conditionToModel(spec.Condition),
	}
	for _, pt := range spec.Intercepts {
		def.Intercepts = append(def.Intercepts, models.InterceptPoint{
			Component: pt.Component,
			Operation: pt.Operation,
		})
	}

	switch def.Type {
	case models.EffectModifyPoints, models.EffectMultiplyPoints, models.EffectSetPoints:
		switch def.Timing {
		case models.TimingBefore, models.TimingAfter, models.TimingOnMutation:
		default:
			return def, fmt.Errorf("interceptor timing %q is not valid", spec.Timing)
		}
		if len(def.Intercepts) == 0 {
			return def, fmt.Errorf("interceptors must name an intercept point")
		}
		if def.Type == models.EffectMultiplyPoints && def.Factor == 0 {
			return def, fmt.Errorf("multiply_points needs a non-zero factor")
		}
		if def.Type == models.EffectSetPoints && def.Value == nil {
			return def, fmt.Errorf("set_points needs a value")
		}
	case models.EffectModifyTime, models.EffectAddScore:
		if def.Timing != models.TimingOnDeploy {
			return def, fmt.Errorf("%s applies on deploy", def.Type)
		}
	case models.EffectEliminateOptions:
		if def.Timing != models.TimingOnDeploy {
			return def, fmt.Errorf("%s applies on deploy", def.Type)
		}
		if def.Amount <= 0 {
			return def, fmt.Errorf("%s needs a positive amount", def.Type)
		}
		switch def.Target {
		case "", "any":
		default:
			return def, fmt.Errorf("eliminate_options target must be empty or \"any\", got %q", def.Target)
		}
		// Only cards working against the crowd may strip the correct option.
		if def.Target == "any" && cardType.Positive() {
			return def, fmt.Errorf("eliminate_options target \"any\" is not allowed on %s cards", cardType)
		}
	case models.EffectAddSlots:
		if def.Timing != models.TimingOnDeploy {
			return def, fmt.Errorf("%s applies on deploy", def.Type)
		}
		if def.Amount <= 0 {
			return def, fmt.Errorf("%s needs a positive amount", def.Type)
		}
	case models.EffectBanCardType, models.EffectCounterCard, models.EffectModifyVoteRequirement:
		if def.Timing != models.TimingOnDeploy {
			return def, fmt.Errorf("%s applies on deploy", def.Type)
		}
		if def.Target == "" {
			return def, fmt.Errorf("%s needs a target", def.Type)
		}
	default:
		return def, fmt.Errorf("unknown effect type %q", spec.Type)
	}

	return def, nil
}

func conditionToModel(spec *ConditionSpec) *models.Condition {
	if spec == nil {
		return nil
	}
	cond := &models.Condition{
		Op:    models.ConditionOp(spec.Op),
		Value: spec.Value,
	}
	for i := range spec.Conditions {
		nested := conditionToModel(&spec.Conditions[i])
		cond.Conditions = append(cond.Conditions, *nested)
	}
	return cond
}

func questionToModel(spec QuestionSpec, index int) (models.Question, error) {
	if strings.TrimSpace(spec.Text) == "" {
		return models.Question{}, fmt.Errorf("text is required")
	}
	if len(spec.Options) < 2 {
		return models.Question{}, fmt.Errorf("at least two options are required")
	}
	if len(spec.Options) > len(optionLabels) {
		return models.Question{}, fmt.Errorf("at most %d options are supported", len(optionLabels))
	}

	id := spec.ID
	if id == "" {
		id = fmt.Sprintf("q%d", index+1)
	}
	points := 1
	if spec.Points != nil {
		if *spec.Points < 0 {
			return models.Question{}, fmt.Errorf("points must not be negative")
		}
		points = *spec.Points
	}

	correct := 0
	options := make([]models.Option, 0, len(spec.Options))
	for i, opt := range spec.Options {
		optID := strings.ToLower(strings.TrimSpace(opt.ID))
		if optID == "" {
			optID = string(optionLabels[i])
		}
		if opt.Correct {
			correct++
		}
		options = append(options, models.Option{ID: optID, Text: opt.Text, Correct: opt.Correct})
	}
	if correct != 1 {
		return models.Question{}, fmt.Errorf("exactly one option must be correct, got %d", correct)
	}

	return models.Question{
		ID:          id,
		Text:        spec.Text,
		Options:     options,
		Points:      points,
		Explanation: spec.Explanation,
		Source:      spec.Source,
		Tags:        spec.Tags,
	}, nil
}
