// Package campaign persists game results and cross-game progression for a
// channel's campaign runs.
package campaign

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cgqgames/cgq/go/internal/models"
	"github.com/cgqgames/cgq/go/internal/sqlutil"
)

// ErrNoProgress is returned when a channel has no campaign record yet.
var ErrNoProgress = errors.New("no campaign progress for channel")

// DB defines what single statements need from the database layer. Satisfied
// by *pgxpool.Pool and by pgx transactions.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool adds transaction support; satisfied by *pgxpool.Pool.
type Pool interface {
	DB
	sqlutil.Beginner
}

// Repository implements campaign data access on Postgres.
type Repository struct {
	db Pool
}

// NewRepository creates a campaign repository.
func NewRepository(db Pool) *Repository {
	return &Repository{db: db}
}

// RecordResult stores one completed game and folds its reward into the
// channel's progress row in a single transaction, returning the updated
// progress.
func (r *Repository) RecordResult(ctx context.Context, channel string, res *models.GameResult, earned int) (*models.CampaignProgress, error) {
	var progress *models.CampaignProgress
	err := sqlutil.Run(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertResult(ctx, tx, channel, res); err != nil {
			return err
		}
		p, err := applyResult(ctx, tx, channel, res.Won, earned)
		if err != nil {
			return err
		}
		progress = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record game result: %w", err)
	}
	return progress, nil
}

// GetProgress returns a channel's campaign progress.
func (r *Repository) GetProgress(ctx context.Context, channel string) (*models.CampaignProgress, error) {
	const q = `
		SELECT channel, currency, games_played, games_won, unlocked_cards, updated_at
		FROM campaign_progress
		WHERE channel = $1`
	progress, err := scanProgress(r.db.QueryRow(ctx, q, channel))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("channel %q: %w", channel, ErrNoProgress)
	}
	return progress, err
}

// SpendCurrency deducts a purchase and unlocks the card in one statement.
// The WHERE clause rejects overdrafts and double-unlocks, surfacing both as
// ErrCannotAfford.
func (r *Repository) SpendCurrency(ctx context.Context, channel, cardID string, cost int) (*models.CampaignProgress, error) {
	const q = `
		UPDATE campaign_progress SET
			currency       = currency - $3,
			unlocked_cards = array_append(unlocked_cards, $2),
			updated_at     = now()
		WHERE channel = $1
		  AND currency >= $3
		  AND NOT ($2 = ANY(unlocked_cards))
		RETURNING channel, currency, games_played, games_won, unlocked_cards, updated_at`
	progress, err := scanProgress(r.db.QueryRow(ctx, q, channel, cardID, cost))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("unlock %q for %q: %w", cardID, channel, ErrCannotAfford)
	}
	return progress, err
}

func insertResult(ctx context.Context, db DB, channel string, res *models.GameResult) error {
	const q = `
		INSERT INTO game_results (
			id, channel, mode, won, score, surplus,
			correct_answers, total_answered, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := db.Exec(ctx, q,
		res.GameID, channel, string(res.Mode), res.Won, res.Score, res.Surplus,
		res.CorrectAnswers, res.TotalAnswered, res.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game result: %w", err)
	}
	return nil
}

func applyResult(ctx context.Context, db DB, channel string, won bool, earned int) (*models.CampaignProgress, error) {
	const q = `
		INSERT INTO campaign_progress (
			channel, currency, games_played, games_won, unlocked_cards, updated_at
		) VALUES ($1, $2, 1, $3, '{}', now())
		ON CONFLICT (channel) DO UPDATE SET
			currency     = campaign_progress.currency + EXCLUDED.currency,
			games_played = campaign_progress.games_played + 1,
			games_won    = campaign_progress.games_won + EXCLUDED.games_won,
			updated_at   = now()
		RETURNING channel, currency, games_played, games_won, unlocked_cards, updated_at`
	wonCount := 0
	if won {
		wonCount = 1
	}
	return scanProgress(db.QueryRow(ctx, q, channel, earned, wonCount))
}

func scanProgress(row pgx.Row) (*models.CampaignProgress, error) {
	var p models.CampaignProgress
	err := row.Scan(
		&p.Channel, &p.Currency, &p.GamesPlayed, &p.GamesWon,
		&p.UnlockedCards, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan campaign progress: %w", err)
	}
	return &p, nil
}
