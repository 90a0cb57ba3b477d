package watch

import (
	"context"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	"git.home.luguber.info/inful/pagewatcher/internal/state"
)

// Observation is what a cycle saw, handed to the mode for its decision.
type Observation struct {
	Previous state.Status
	Current  state.Status
}

// Mode turns an observation into a decision and persists what the mode tracks.
type Mode interface {
	// SkipWhenTriggered reports whether an existing trigger flag ends the cycle
	// before the lock is taken.
	SkipWhenTriggered() bool
	// Decide persists mode state and reports whether obs is a notify-worthy
	// transition and why.
	Decide(ctx context.Context, store *state.Store, obs Observation) (state.Reason, bool, error)
}

// ModeFor returns the strategy for m.
func ModeFor(m config.WatchMode) Mode {
	if m == config.ModeToggle {
		return Toggle{}
	}
	return SingleShot{}
}

// SingleShot fires once, the first time the target is available.
type SingleShot struct{}

func (SingleShot) SkipWhenTriggered() bool { return true }

func (SingleShot) Decide(_ context.Context, _ *state.Store, obs Observation) (state.Reason, bool, error) {
	if obs.Current != state.StatusAvailable {
		return "", false, nil
	}
	return state.ReasonStatusFound, true, nil
}

// Toggle records the status every cycle and fires on each flip between two known
// statuses. The first observation only seeds the status.
type Toggle struct{}

func (Toggle) SkipWhenTriggered() bool { return false }

func (Toggle) Decide(ctx context.Context, store *state.Store, obs Observation) (state.Reason, bool, error) {
	if err := store.SaveStatus(ctx, obs.Current); err != nil {
		return "", false, err
	}
	if obs.Previous == state.StatusUnknown || obs.Previous == obs.Current {
		return "", false, nil
	}
	return state.ReasonForFlip(obs.Current), true, nil
}
