package campaign

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/cgqgames/cgq/go/internal/models"
)

// ErrCannotAfford rejects a store purchase the balance or unlock state does
// not allow.
var ErrCannotAfford = errors.New("purchase not allowed")

// winBonus is the flat currency reward for clearing the passing grade, on
// top of the surplus.
const winBonus = 2

// CampaignRepository defines what the app layer needs from the repository.
type CampaignRepository interface {
	RecordResult(ctx context.Context, channel string, res *models.GameResult, earned int) (*models.CampaignProgress, error)
	GetProgress(ctx context.Context, channel string) (*models.CampaignProgress, error)
	SpendCurrency(ctx context.Context, channel, cardID string, cost int) (*models.CampaignProgress, error)
}

// App handles campaign business logic.
type App struct {
	repo CampaignRepository
}

// NewApp creates a campaign App.
func NewApp(repo CampaignRepository) *App {
	return &App{repo: repo}
}

// RecordResult stores a finished game and folds its reward into the
// channel's progression. Normal-mode games are stored but earn nothing.
func (a *App) RecordResult(ctx context.Context, channel string, res *models.GameResult) (*models.CampaignProgress, error) {
	earned := 0
	if res.Mode == models.GameModeCampaign {
		earned = res.Surplus
		if res.Won {
			earned += winBonus
		}
	}
	progress, err := a.repo.RecordResult(ctx, channel, res, earned)
	if err != nil {
		return nil, fmt.Errorf("record result: %w", err)
	}

	log.Info().
		Str("channel", channel).
		Bool("won", res.Won).
		Int("earned", earned).
		Int("currency", progress.Currency).
		Msg("campaign progress updated")
	return progress, nil
}

// Progress returns a channel's progression, or an empty record for channels
// that have not completed a game yet.
func (a *App) Progress(ctx context.Context, channel string) (*models.CampaignProgress, error) {
	progress, err := a.repo.GetProgress(ctx, channel)
	if errors.Is(err, ErrNoProgress) {
		return &models.CampaignProgress{Channel: channel}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return progress, nil
}

// Purchase unlocks a card in the store, spending the channel's currency.
func (a *App) Purchase(ctx context.Context, channel string, card *models.Card) (*models.CampaignProgress, error) {
	if card.Cost <= 0 {
		return nil, fmt.Errorf("card %q is not purchasable: %w", card.ID, ErrCannotAfford)
	}
	progress, err := a.repo.SpendCurrency(ctx, channel, card.ID, card.Cost)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("channel", channel).
		Str("card_id", card.ID).
		Int("cost", card.Cost).
		Int("currency", progress.Currency).
		Msg("card unlocked")
	return progress, nil
}

// Unlocked reports whether the channel has bought the card.
func Unlocked(progress *models.CampaignProgress, cardID string) bool {
	for _, id := range progress.UnlockedCards {
		if id == cardID {
			return true
		}
	}
	return false
}
