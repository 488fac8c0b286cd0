package subscription

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mail-ingest-backend/pkg/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	err   error
	calls int
}

func (f *fakeTokens) Acquire(ctx context.Context) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "test-token", nil
}

type fakeGraphAPI struct {
	existing  *graph.Subscription
	createErr error
	renewOK   func(call int) bool

	findCalls      int
	deleteAllCalls int
	createCalls    int
	renewCalls     []string
}

func (f *fakeGraphAPI) FindExisting(ctx context.Context, token string) (*graph.Subscription, error) {
	f.findCalls++
	return f.existing, nil
}

func (f *fakeGraphAPI) DeleteAll(ctx context.Context, token string) error {
	f.deleteAllCalls++
	return nil
}

func (f *fakeGraphAPI) CreateSubscription(ctx context.Context, token string) (*graph.Subscription, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &graph.Subscription{ID: fmt.Sprintf("sub-%d", f.createCalls)}, nil
}

func (f *fakeGraphAPI) RenewSubscription(ctx context.Context, token, subscriptionID string) bool {
	f.renewCalls = append(f.renewCalls, subscriptionID)
	if f.renewOK == nil {
		return true
	}
	return f.renewOK(len(f.renewCalls))
}

func TestRecoveryThenSlowTransition(t *testing.T) {
	api := &fakeGraphAPI{}
	s := NewScheduler(api, &fakeTokens{})
	ctx := context.Background()

	// Tick 1 is the recovery path: clear, create, initial renewal. The
	// cadence must stay fast even though that renewal succeeded.
	s.tick(ctx)
	assert.Equal(t, 1, api.deleteAllCalls)
	assert.Equal(t, 1, api.createCalls)
	assert.Equal(t, []string{"sub-1"}, api.renewCalls)
	state := s.Snapshot()
	assert.Equal(t, "sub-1", state.SubscriptionID)
	assert.Equal(t, CadenceFast, state.Cadence)

	// Tick 2 is the first renew-only tick; its success flips the cadence.
	s.tick(ctx)
	assert.Equal(t, []string{"sub-1", "sub-1"}, api.renewCalls)
	assert.Equal(t, CadenceSlow, s.Snapshot().Cadence)

	// The transition is one-way and one-time.
	s.tick(ctx)
	assert.Equal(t, 1, api.createCalls)
	assert.Equal(t, CadenceSlow, s.Snapshot().Cadence)
}

func TestRenewGuardWithoutSubscriptionID(t *testing.T) {
	api := &fakeGraphAPI{}
	tokens := &fakeTokens{}
	s := NewScheduler(api, tokens)

	ok := s.renewCurrent(context.Background())

	assert.False(t, ok)
	assert.Zero(t, tokens.calls, "guard clause must not acquire a token")
	assert.Empty(t, api.renewCalls, "guard clause must not make any network call")
}

func TestRenewFailureStaysInCurrentCadence(t *testing.T) {
	api := &fakeGraphAPI{renewOK: func(call int) bool { return call >= 3 }}
	s := NewScheduler(api, &fakeTokens{})
	s.setSubscriptionID("sub-x")
	ctx := context.Background()

	s.tick(ctx) // renew fails
	assert.Equal(t, CadenceFast, s.Snapshot().Cadence)
	s.tick(ctx) // renew fails again, still retried at fast cadence
	assert.Equal(t, CadenceFast, s.Snapshot().Cadence)
	s.tick(ctx) // renew succeeds
	assert.Equal(t, CadenceSlow, s.Snapshot().Cadence)

	assert.Zero(t, api.createCalls, "renewal failure must not trigger recovery while an id is cached")
}

func TestFirstTickAdoptsExistingSubscription(t *testing.T) {
	api := &fakeGraphAPI{existing: &graph.Subscription{ID: "sub-old"}}
	s := NewScheduler(api, &fakeTokens{})

	s.tick(context.Background())

	assert.Equal(t, "sub-old", s.Snapshot().SubscriptionID)
	assert.Zero(t, api.deleteAllCalls, "adoption must not clear subscriptions")
	assert.Zero(t, api.createCalls)
}

func TestRecoveryRetriesAfterTokenFailure(t *testing.T) {
	api := &fakeGraphAPI{}
	tokens := &fakeTokens{err: errors.New("identity provider unreachable")}
	s := NewScheduler(api, tokens)
	ctx := context.Background()

	s.tick(ctx)
	require.Zero(t, api.createCalls)
	assert.Empty(t, s.Snapshot().SubscriptionID)

	// Next tick retries recovery once tokens come back.
	tokens.err = nil
	s.tick(ctx)
	assert.Equal(t, 1, api.createCalls)
	assert.Equal(t, "sub-1", s.Snapshot().SubscriptionID)
}

func TestRecoveryRetriesAfterCreateFailure(t *testing.T) {
	api := &fakeGraphAPI{createErr: errors.New("403 from provider")}
	s := NewScheduler(api, &fakeTokens{})
	ctx := context.Background()

	s.tick(ctx)
	assert.Empty(t, s.Snapshot().SubscriptionID)
	assert.Equal(t, CadenceFast, s.Snapshot().Cadence)

	api.createErr = nil
	s.tick(ctx)
	assert.Equal(t, "sub-2", s.Snapshot().SubscriptionID)
	assert.Equal(t, CadenceFast, s.Snapshot().Cadence)
}
