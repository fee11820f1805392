package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/cgqgames/cgq/go/internal/campaign"
	"github.com/cgqgames/cgq/go/internal/chat"
	"github.com/cgqgames/cgq/go/internal/gateway"
	"github.com/cgqgames/cgq/go/internal/models"
	"github.com/cgqgames/cgq/go/internal/quiz/events"
	"github.com/cgqgames/cgq/go/internal/quiz/machine"
	"github.com/cgqgames/cgq/go/internal/quiz/random"
	"github.com/cgqgames/cgq/go/internal/quiz/state"
)

const pollInterval = 250 * time.Millisecond

// runner drives the game loop: chat commands in, phase transitions out. It
// serializes all access to the machine; the gateway reads snapshots through
// the same lock.
type runner struct {
	cfg      Config
	clock    clockwork.Clock
	hub      *gateway.Hub
	campaign *campaign.App // nil outside campaign mode
	cards    []models.Card
	messages <-chan chat.Message

	mu   sync.Mutex
	game *machine.Machine

	// Phase-change bookkeeping, touched only inside the loop.
	revealUntil    time.Time
	intermissionAt time.Time
	recorded       bool
}

// snapshot is handed to the gateway for the /snapshot endpoint.
func (r *runner) snapshot() state.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Snapshot()
}

// run blocks until the context is cancelled or the chat stream closes.
func (r *runner) run(ctx context.Context) error {
	r.startGame()

	timer := r.clock.NewTimer(pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-r.messages:
			if !ok {
				return errors.New("chat stream closed")
			}
			r.handleMessage(ctx, msg)
		case <-timer.Chan():
			r.tick(ctx)
			timer.Reset(pollInterval)
		}
	}
}

func (r *runner) startGame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.game.Start(); err != nil {
		log.Error().Err(err).Msg("failed to start game")
		return
	}
	r.recorded = false
	r.hub.Broadcast(string(events.TypeSnapshot), r.game.Snapshot())
}

func (r *runner) handleMessage(ctx context.Context, msg chat.Message) {
	cmd := chat.ParseCommand(msg.Text)
	if cmd.Kind == chat.CommandUnknown {
		return
	}
	pid := msg.ParticipantID()

	r.mu.Lock()
	defer r.mu.Unlock()

	switch cmd.Kind {
	case chat.CommandAnswer:
		if err := r.game.SubmitAnswer(pid, cmd.Choice); err != nil {
			log.Debug().Err(err).Str("participant", pid).Msg("answer rejected")
			return
		}
		r.afterTransition()
	case chat.CommandUseCard:
		card := chat.MatchCard(cmd.CardQuery, r.game.VotableCards())
		if card == nil {
			log.Debug().Str("query", cmd.CardQuery).Msg("card query matched nothing")
			return
		}
		out, err := r.game.VoteCard(pid, card.ID)
		if err != nil {
			log.Debug().Err(err).Str("card_id", card.ID).Msg("card vote rejected")
			return
		}
		log.Info().
			Str("participant", pid).
			Str("card_id", card.ID).
			Str("status", string(out.Status)).
			Int("count", out.Count).
			Int("required", out.Required).
			Msg("card vote")
		r.afterTransition()
	case chat.CommandBuy:
		r.handleBuy(ctx, pid, cmd.CardQuery)
	}
}

// handleBuy spends campaign currency in the store phase. Called with the
// lock held.
func (r *runner) handleBuy(ctx context.Context, pid, query string) {
	if r.campaign == nil || r.game.Phase() != state.PhaseStore {
		return
	}
	catalog := make([]*models.Card, 0, len(r.cards))
	for i := range r.cards {
		if r.cards[i].Cost > 0 {
			catalog = append(catalog, &r.cards[i])
		}
	}
	card := chat.MatchCard(query, catalog)
	if card == nil {
		log.Debug().Str("query", query).Msg("store query matched nothing")
		return
	}
	progress, err := r.campaign.Purchase(ctx, r.cfg.Channel, card)
	if err != nil {
		log.Debug().Err(err).Str("card_id", card.ID).Str("participant", pid).Msg("purchase rejected")
		return
	}
	r.hub.Broadcast(string(events.TypeProgressUpdated), progress)
}

// tick drives the time-based transitions: timer expiry, reveal hold, game
// over settlement and intermission.
func (r *runner) tick(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	switch r.game.Phase() {
	case state.PhaseQuestion:
		if r.game.Poll() {
			r.afterTransition()
		}
	case state.PhaseAnswerReveal:
		if r.revealUntil.IsZero() {
			r.revealUntil = now.Add(r.cfg.RevealDuration)
			return
		}
		if now.Before(r.revealUntil) {
			return
		}
		r.revealUntil = time.Time{}
		if err := r.game.Advance(); err != nil {
			log.Error().Err(err).Msg("failed to advance")
			return
		}
		r.afterTransition()
	case state.PhaseGameOver:
		r.settleGameOver(ctx, now)
	case state.PhaseStore:
		if now.After(r.intermissionAt) {
			if err := r.game.EnterCampaignMap(); err != nil {
				log.Error().Err(err).Msg("failed to leave store")
				return
			}
			r.resetForNextGame()
		}
	}
}

// settleGameOver records the result once, then waits out the intermission
// before the next game (via the store in campaign mode).
func (r *runner) settleGameOver(ctx context.Context, now time.Time) {
	if !r.recorded {
		r.recorded = true
		r.intermissionAt = now.Add(r.cfg.IntermissionDuration)
		res, ok := r.game.Result()
		if ok && r.campaign != nil {
			if progress, err := r.campaign.RecordResult(ctx, r.cfg.Channel, res); err != nil {
				log.Error().Err(err).Msg("failed to record result")
			} else {
				r.hub.Broadcast(string(events.TypeProgressUpdated), progress)
			}
		}
		return
	}
	if now.Before(r.intermissionAt) {
		return
	}
	if r.cfg.Mode == models.GameModeCampaign {
		if err := r.game.EnterStore(); err != nil {
			log.Error().Err(err).Msg("failed to enter store")
			return
		}
		// Store stays open for one more intermission window.
		r.intermissionAt = now.Add(r.cfg.IntermissionDuration)
		r.hub.Broadcast(string(events.TypeSnapshot), r.game.Snapshot())
		return
	}
	r.resetForNextGame()
}

// resetForNextGame reseeds and starts a fresh game. Called with the lock
// held.
func (r *runner) resetForNextGame() {
	seed, err := random.NewSeed()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate seed")
		seed = r.clock.Now().UnixNano()
	}
	if err := r.game.ReturnToIdle(seed); err != nil {
		log.Error().Err(err).Msg("failed to reset game")
		return
	}
	if err := r.game.Start(); err != nil {
		log.Error().Err(err).Msg("failed to start next game")
		return
	}
	r.recorded = false
	r.hub.Broadcast(string(events.TypeSnapshot), r.game.Snapshot())
}

// afterTransition broadcasts the fresh state after anything that may have
// changed phase or score. Called with the lock held.
func (r *runner) afterTransition() {
	r.hub.Broadcast(string(events.TypeSnapshot), r.game.Snapshot())
}
