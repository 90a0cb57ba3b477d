package watch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagewatcher/internal/config"
	"git.home.luguber.info/inful/pagewatcher/internal/state"
)

func TestModeFor(t *testing.T) {
	require.IsType(t, SingleShot{}, ModeFor(config.ModeSingleShot))
	require.IsType(t, Toggle{}, ModeFor(config.ModeToggle))
	require.IsType(t, SingleShot{}, ModeFor(""))
}

func TestToggleDecide(t *testing.T) {
	cases := []struct {
		prev, cur state.Status
		fire      bool
		reason    state.Reason
	}{
		{state.StatusUnknown, state.StatusAvailable, false, ""},
		{state.StatusUnknown, state.StatusUnavailable, false, ""},
		{state.StatusAvailable, state.StatusAvailable, false, ""},
		{state.StatusUnavailable, state.StatusUnavailable, false, ""},
		{state.StatusAvailable, state.StatusUnavailable, true, state.ReasonChangedToUnavailable},
		{state.StatusUnavailable, state.StatusAvailable, true, state.ReasonChangedToAvailable},
	}
	for _, tc := range cases {
		t.Run(string(tc.prev)+"->"+string(tc.cur), func(t *testing.T) {
			store := state.NewStore(state.NewMemoryBackend(), "x1413")
			reason, fire, err := Toggle{}.Decide(context.Background(), store, Observation{Previous: tc.prev, Current: tc.cur})
			require.NoError(t, err)
			require.Equal(t, tc.fire, fire)
			require.Equal(t, tc.reason, reason)

			saved, err := store.LastStatus(context.Background())
			require.NoError(t, err)
			require.Equal(t, tc.cur, saved)
		})
	}
}

func TestSingleShotDecide(t *testing.T) {
	store := state.NewStore(state.NewMemoryBackend(), "x1919")
	reason, fire, err := SingleShot{}.Decide(context.Background(), store, Observation{Previous: state.StatusUnknown, Current: state.StatusAvailable})
	require.NoError(t, err)
	require.True(t, fire)
	require.Equal(t, state.ReasonStatusFound, reason)

	_, fire, err = SingleShot{}.Decide(context.Background(), store, Observation{Current: state.StatusUnavailable})
	require.NoError(t, err)
	require.False(t, fire)
}
