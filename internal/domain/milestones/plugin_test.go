package milestones

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milestonenotifier/internal/platform/hooks"
)

func TestActivateFailsWithoutCapability(t *testing.T) {
	users := &fakeUsers{}
	n, _ := newTestNotifier(t, users, Settings{}, FeatureFlag{Label: "admin inbox"})
	reg := hooks.NewRegistry()
	p := NewPlugin(n, reg)

	err := p.Activate(context.Background())
	require.ErrorIs(t, err, ErrMissingCapability)
	assert.Contains(t, err.Error(), "admin inbox")
	assert.False(t, p.Active())
	assert.False(t, reg.Has(hooks.UserRegister, HandlerID))
}

func TestActivateRegistersOnceAndDeactivateCleansUp(t *testing.T) {
	users := &fakeUsers{}
	n, store := newTestNotifier(t, users, Settings{}, FeatureFlag{Label: "admin inbox", Enabled: true})
	reg := hooks.NewRegistry()
	p := NewPlugin(n, reg)
	ctx := context.Background()

	require.NoError(t, p.Activate(ctx))
	require.NoError(t, p.Activate(ctx))
	assert.True(t, p.Active())
	assert.True(t, reg.Has(hooks.UserRegister, HandlerID))

	users.count = 1
	require.NoError(t, reg.Dispatch(ctx, hooks.Event{Hook: hooks.UserRegister}))
	users.count = 100
	require.NoError(t, reg.Dispatch(ctx, hooks.Event{Hook: hooks.UserRegister}))
	assert.Len(t, allNotes(t, store), 2)
	assert.Equal(t, 2, users.calls)

	removed, err := p.Deactivate(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
	assert.False(t, p.Active())
	assert.False(t, reg.Has(hooks.UserRegister, HandlerID))
	assert.Empty(t, allNotes(t, store))

	users.count = 10
	require.NoError(t, reg.Dispatch(ctx, hooks.Event{Hook: hooks.UserRegister}))
	assert.Empty(t, allNotes(t, store))
}
