package selector

import "errors"

var (
	// ErrInvalidExpression reports a locator expression that cannot be
	// parsed or evaluated.
	ErrInvalidExpression = errors.New("invalid locator expression")

	// ErrNoMatch reports that a strategy's expression evaluated cleanly but
	// matched nothing for the whole polling window.
	ErrNoMatch = errors.New("no nodes matched")

	// ErrNotInteractable reports a strategy that matched only elements
	// unable to receive pointer or keyboard events.
	ErrNotInteractable = errors.New("element not interactable")

	// ErrTimeout reports that one strategy's polling wait exceeded its
	// ceiling. It always wraps ErrNoMatch or ErrNotInteractable, and the
	// last timed-out strategy's error rides inside ErrExhausted.
	ErrTimeout = errors.New("timeout exceeded")

	// ErrExhausted reports that every strategy failed to produce a
	// qualifying match within its timeout. It is the trigger condition for
	// the fallback agent.
	ErrExhausted = errors.New("all locator strategies exhausted")
)
