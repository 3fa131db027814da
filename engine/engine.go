// Package engine orchestrates quote aggregation rounds: it debounces
// incoming requests, fans out to provider adapters, reduces their
// results into a live offer set and settles on a best offer.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapcore/allowance"
	"swapcore/db"
	"swapcore/swaps"
	"swapcore/walletsvc"
)

const (
	// DefaultDebounce is how long after the last Submit a round fires.
	DefaultDebounce = 2000 * time.Millisecond
	// DefaultSettle is the wait after the last adapter completes before
	// the best offer is published.
	DefaultSettle = 3500 * time.Millisecond
)

// Update is one published snapshot of the current round. Offers are in
// display order with hidden offers already dropped. Selected and
// Settled are set only once the round has settled.
type Update struct {
	Seq      uint64
	Offers   []swaps.Offer
	Selected *swaps.Offer
	Warning  string
	Settled  bool
}

// Engine runs aggregation rounds over a fixed provider set. All round
// state is owned by a single reducer goroutine; public methods only
// post events to it.
type Engine struct {
	providers map[string]swaps.Provider
	order     []string // declaration order, used for tie-breaks and display

	wallet  walletsvc.Service
	indexer *allowance.Indexer
	store   *db.Store // nil disables round recording
	log     *zap.Logger

	debounce    time.Duration
	settle      time.Duration
	machineOpts []allowance.Option

	events chan event
	done   chan struct{}

	mu       sync.Mutex
	debTimer *time.Timer
	closed   bool
	snapshot Update
	subs     []chan Update
}

// Option configures an Engine.
type Option func(*Engine)

// WithDebounce overrides the submit debounce window.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// WithSettle overrides the post-completion settle window.
func WithSettle(d time.Duration) Option {
	return func(e *Engine) { e.settle = d }
}

// WithStore enables round recording.
func WithStore(store *db.Store) Option {
	return func(e *Engine) { e.store = store }
}

// WithMachineOptions passes options through to allowance machines
// created for offers that require approval.
func WithMachineOptions(opts ...allowance.Option) Option {
	return func(e *Engine) { e.machineOpts = opts }
}

// New builds an engine over the given providers. Provider order is
// preserved for display and best-offer tie-breaking.
func New(providers []swaps.Provider, wallet walletsvc.Service, indexer *allowance.Indexer, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		providers: make(map[string]swaps.Provider, len(providers)),
		wallet:    wallet,
		indexer:   indexer,
		log:       log,
		debounce:  DefaultDebounce,
		settle:    DefaultSettle,
		events:    make(chan event, 64),
		done:      make(chan struct{}),
	}
	for _, p := range providers {
		e.providers[p.Key()] = p
		e.order = append(e.order, p.Key())
	}
	for _, opt := range opts {
		opt(e)
	}
	go e.reduce()
	return e
}

// Submit schedules an aggregation round for the request. Rapid calls
// coalesce: each one restarts the debounce timer and only the last
// request fires. The in-flight round, if any, is superseded when the
// new one starts.
func (e *Engine) Submit(req swaps.QuoteRequest) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.debTimer != nil {
		e.debTimer.Stop()
	}
	e.debTimer = time.AfterFunc(e.debounce, func() {
		e.post(submitEvent{req: req})
	})
}

// Subscribe registers for round updates. The returned channel is
// buffered; a slow consumer misses intermediate snapshots, never the
// final one for a settled round. The channel closes on engine Close.
func (e *Engine) Subscribe() <-chan Update {
	ch := make(chan Update, 16)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

// SetSlippage updates a provider offer's slippage tolerance and
// recomputes its minimum receive without starting a new round. Values
// outside the supported range are clamped to the default.
func (e *Engine) SetSlippage(providerKey string, value decimal.Decimal) {
	e.post(slippageEvent{key: providerKey, value: value})
}

// SelectRoute switches a multi-route offer's headline numbers to the
// named route without starting a new round.
func (e *Engine) SelectRoute(providerKey, routeKey string) {
	e.post(routeEvent{key: providerKey, routeKey: routeKey})
}

// ApprovalSubmitted reports the broadcast approval transaction for the
// provider's offer, moving its allowance machine into the confirming
// poll.
func (e *Engine) ApprovalSubmitted(providerKey, txid string) error {
	reply := make(chan error, 1)
	e.post(approvalTxEvent{key: providerKey, txid: txid, reply: reply})
	select {
	case err := <-reply:
		return err
	case <-e.done:
		return fmt.Errorf("engine closed")
	}
}

// BeginExecution returns the frozen offer for checkout. It errors when
// the offer is not a settled success, or when the offer requires an
// ERC-20 approval that is not yet sufficient.
func (e *Engine) BeginExecution(providerKey string) (swaps.Offer, error) {
	e.mu.Lock()
	snap := e.snapshot
	e.mu.Unlock()

	if !snap.Settled {
		return swaps.Offer{}, fmt.Errorf("round %d has not settled", snap.Seq)
	}
	for _, offer := range snap.Offers {
		if offer.ProviderKey != providerKey {
			continue
		}
		if offer.State != swaps.OfferSuccess {
			return swaps.Offer{}, fmt.Errorf("offer from %s is not executable: %s", providerKey, offer.State)
		}
		if offer.RequiresApproval && offer.Approval != swaps.ApprovalSufficient {
			return swaps.Offer{}, fmt.Errorf("offer from %s needs token approval: %s", providerKey, offer.Approval)
		}
		return offer, nil
	}
	return swaps.Offer{}, fmt.Errorf("no offer from %s in round %d", providerKey, snap.Seq)
}

// Close stops the engine: the pending debounce is dropped, the active
// round is superseded and all subscriber channels close. In-flight
// adapter calls finish but their results are discarded.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.debTimer != nil {
		e.debTimer.Stop()
	}
	e.mu.Unlock()

	close(e.done)
}

// post delivers an event to the reducer unless the engine has closed.
func (e *Engine) post(ev event) {
	select {
	case e.events <- ev:
	case <-e.done:
	}
}

// publish snapshots the round and fans it out to subscribers without
// blocking on slow consumers.
func (e *Engine) publish(u Update) {
	e.mu.Lock()
	e.snapshot = u
	subs := make([]chan Update, len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- u:
		default:
			// Drop one stale snapshot to make room for the current one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
}
