package effects

import "errors"

var (
	// ErrSlotsFull rejects a permanent deployment when every slot is taken.
	// The triggering vote or draw is discarded; votes are not refunded.
	ErrSlotsFull = errors.New("card slots full")

	// ErrUnknownCard is returned when an effect targets a card that is
	// neither deployed nor known to the game.
	ErrUnknownCard = errors.New("unknown card")

	// ErrUnknownComponentOperation means an effect references a
	// (component, operation) pair the engine does not recognise. The
	// offending interceptor is skipped, never the whole pipeline.
	ErrUnknownComponentOperation = errors.New("unknown component operation")

	// ErrMalformedEffect is the content-validation escape hatch: the effect
	// degrades to a no-op with a warning.
	ErrMalformedEffect = errors.New("malformed effect")
)
