package subscription

import (
	"context"
	"log"
	"sync"
	"time"

	"mail-ingest-backend/pkg/graph"
)

// GraphAPI is the subset of the Graph client the scheduler drives.
type GraphAPI interface {
	FindExisting(ctx context.Context, token string) (*graph.Subscription, error)
	DeleteAll(ctx context.Context, token string) error
	CreateSubscription(ctx context.Context, token string) (*graph.Subscription, error)
	RenewSubscription(ctx context.Context, token, subscriptionID string) bool
}

// TokenSource acquires bearer tokens for the Graph API.
type TokenSource interface {
	Acquire(ctx context.Context) (string, error)
}

type Cadence int

const (
	// CadenceFast polls every few seconds until the first successful
	// renewal, minimizing webhook downtime after a cold start or an
	// externally deleted subscription.
	CadenceFast Cadence = iota
	// CadenceSlow polls on the subscription-lifetime scale once steady
	// state is reached. The fast->slow transition is one-way.
	CadenceSlow
)

func (c Cadence) String() string {
	if c == CadenceSlow {
		return "slow"
	}
	return "fast"
}

// State is a snapshot of the scheduler's subscription tracking.
type State struct {
	SubscriptionID string
	Cadence        Cadence
}

// Scheduler keeps the push subscription alive. It is the single writer of the
// subscription id; every other component only sees snapshots.
type Scheduler struct {
	api    GraphAPI
	tokens TokenSource

	fastInterval time.Duration
	slowInterval time.Duration

	mu         sync.Mutex
	state      State
	adoptTried bool

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewScheduler(api GraphAPI, tokens TokenSource) *Scheduler {
	return &Scheduler{
		api:          api,
		tokens:       tokens,
		fastInterval: 15 * time.Second,
		slowInterval: 40 * time.Hour,
		stopChan:     make(chan struct{}),
	}
}

// Start launches the renewal loop in the background.
func (s *Scheduler) Start() {
	log.Printf("[Scheduler] Auto-renew scheduler started (every %s until first renewal, then every %s)", s.fastInterval, s.slowInterval)
	go s.run()
}

// Stop terminates the renewal loop.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Snapshot returns the current subscription state.
func (s *Scheduler) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) run() {
	ctx := context.Background()

	s.tick(ctx)
	timer := time.NewTimer(s.interval())
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.tick(ctx)
			timer.Reset(s.interval())
		case <-s.stopChan:
			log.Println("[Scheduler] Scheduler stopped")
			return
		}
	}
}

func (s *Scheduler) interval() time.Duration {
	if s.Snapshot().Cadence == CadenceSlow {
		return s.slowInterval
	}
	return s.fastInterval
}

// tick evaluates the renewal state machine once. Every failure here is
// transient: it is logged and retried on the next tick.
func (s *Scheduler) tick(ctx context.Context) {
	log.Println("[Scheduler] Running scheduled subscription check...")

	if s.Snapshot().SubscriptionID != "" {
		if s.renewCurrent(ctx) && s.Snapshot().Cadence == CadenceFast {
			s.setCadence(CadenceSlow)
			log.Printf("[Scheduler] Switched to %s renewal schedule.", s.slowInterval)
		}
		return
	}

	// Recovery path: no subscription is tracked.
	token, err := s.tokens.Acquire(ctx)
	if err != nil {
		log.Printf("[Scheduler] Failed to get token for recovery: %v", err)
		return
	}

	// On the first pass only, adopt a surviving subscription instead of
	// tearing it down.
	if s.markAdoptTried() {
		if sub, err := s.api.FindExisting(ctx, token); err == nil && sub != nil {
			s.setSubscriptionID(sub.ID)
			log.Printf("[Scheduler] Found existing subscription: %s", sub.ID)
			return
		}
	}

	if err := s.api.DeleteAll(ctx, token); err != nil {
		log.Printf("[Scheduler] Could not clear stale subscriptions: %v", err)
	}

	sub, err := s.api.CreateSubscription(ctx, token)
	if err != nil {
		log.Printf("[Scheduler] Subscription creation failed: %v", err)
		return
	}
	s.setSubscriptionID(sub.ID)
	log.Printf("[Scheduler] New subscription created: %s", sub.ID)

	// Establish the 40-hour expiry baseline beyond the creation default.
	// The cadence stays fast until a renew succeeds on a later tick.
	log.Println("[Scheduler] Subscription recovery succeeded. Attempting initial renewal...")
	s.renewCurrent(ctx)
}

// renewCurrent renews the tracked subscription. With no tracked id it returns
// false without any network call.
func (s *Scheduler) renewCurrent(ctx context.Context) bool {
	subscriptionID := s.Snapshot().SubscriptionID
	if subscriptionID == "" {
		log.Println("[Scheduler] No subscription ID available to renew.")
		return false
	}

	token, err := s.tokens.Acquire(ctx)
	if err != nil {
		log.Printf("[Scheduler] No token available for renewal: %v", err)
		return false
	}

	if !s.api.RenewSubscription(ctx, token, subscriptionID) {
		return false
	}
	log.Printf("[Scheduler] Subscription %s renewed", subscriptionID)
	return true
}

func (s *Scheduler) setSubscriptionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SubscriptionID = id
}

func (s *Scheduler) setCadence(c Cadence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Cadence = c
}

func (s *Scheduler) markAdoptTried() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adoptTried {
		return false
	}
	s.adoptTried = true
	return true
}
