package allowance

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapcore/swaps"
	"swapcore/walletsvc"
)

const (
	// DefaultPollInterval is the wait between allowance re-checks while
	// an approval transaction confirms.
	DefaultPollInterval = 3 * time.Second
	// DefaultMaxPolls bounds the confirming loop to a five minute wall
	// clock at the default interval. The upstream behavior polls
	// forever; a stuck approval here ends in Failed instead.
	DefaultMaxPolls = 100
)

// Machine tracks the allowance state for one (owner, spender, token)
// tuple. It performs no signing or broadcasting; the wallet service
// reports the approval transaction id back via ApprovalSubmitted.
type Machine struct {
	wallet  walletsvc.Service
	indexer *Indexer
	log     *zap.Logger

	pollInterval time.Duration
	maxPolls     int

	mu         sync.Mutex
	state      swaps.ApprovalState
	observer   func(swaps.ApprovalState)
	chain      string
	owner      common.Address
	spender    common.Address
	token      common.Address
	deposit    *big.Int // required spend in smallest units
	cancelPoll context.CancelFunc
}

// Option configures a Machine.
type Option func(*Machine)

// WithPollInterval overrides the confirming poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(m *Machine) { m.pollInterval = d }
}

// WithMaxPolls overrides the confirming retry budget.
func WithMaxPolls(n int) Option {
	return func(m *Machine) { m.maxPolls = n }
}

func NewMachine(wallet walletsvc.Service, indexer *Indexer, log *zap.Logger, opts ...Option) *Machine {
	m := &Machine{
		wallet:       wallet,
		indexer:      indexer,
		log:          log,
		pollInterval: DefaultPollInterval,
		maxPolls:     DefaultMaxPolls,
		state:        swaps.ApprovalUnknown,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current machine state.
func (m *Machine) State() swaps.ApprovalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// OnTransition registers a callback invoked on every state change.
// The callback runs outside the machine lock.
func (m *Machine) OnTransition(fn func(swaps.ApprovalState)) {
	m.mu.Lock()
	m.observer = fn
	m.mu.Unlock()
}

func (m *Machine) setState(s swaps.ApprovalState) {
	m.mu.Lock()
	if m.state == s {
		m.mu.Unlock()
		return
	}
	old := m.state
	m.state = s
	observer := m.observer
	m.mu.Unlock()

	m.log.Debug("allowance transition",
		zap.String("from", string(old)),
		zap.String("to", string(s)))
	if observer != nil {
		observer(s)
	}
}

// Check resolves the owner's deposit address, queries the indexing
// service and decides Sufficient vs InsufficientNeedsApproval for the
// given spend amount. It re-enters from Sufficient when the amount
// changes. Resolution dead-ends (no token contract, no spender) and
// query failures end in Failed.
func (m *Machine) Check(ctx context.Context, w *swaps.Wallet, spenderAddress string, amount decimal.Decimal) error {
	if !w.IsToken() {
		m.setState(swaps.ApprovalFailed)
		return fmt.Errorf("wallet %s holds no token contract, nothing to approve", w.ID)
	}
	if spenderAddress == "" {
		m.setState(swaps.ApprovalFailed)
		return fmt.Errorf("no spender address could be derived from the selected route")
	}

	m.setState(swaps.ApprovalChecking)

	ownerAddr, err := m.wallet.DepositAddress(ctx, w)
	if err != nil {
		m.setState(swaps.ApprovalFailed)
		return fmt.Errorf("resolving deposit address: %w", err)
	}

	precision, err := m.wallet.AssetPrecision(w.Coin, w.Chain, w.TokenAddress)
	if err != nil {
		m.setState(swaps.ApprovalFailed)
		return fmt.Errorf("resolving precision for %s: %w", w.Coin, err)
	}

	deposit := amount.Mul(decimal.NewFromInt(precision.UnitToSatoshi)).BigInt()

	m.mu.Lock()
	m.chain = w.Chain
	m.owner = common.HexToAddress(ownerAddr)
	m.spender = common.HexToAddress(spenderAddress)
	m.token = common.HexToAddress(w.TokenAddress)
	m.deposit = deposit
	m.mu.Unlock()

	return m.evaluate(ctx, false)
}

// evaluate queries the indexer once and applies the decision. During
// the confirming loop an insufficient allowance keeps the current
// state instead of regressing to InsufficientNeedsApproval.
func (m *Machine) evaluate(ctx context.Context, confirming bool) error {
	m.mu.Lock()
	chain, owner, spender, token, deposit := m.chain, m.owner, m.spender, m.token, m.deposit
	m.mu.Unlock()

	current, err := m.indexer.Allowance(ctx, chain, owner, spender, token)
	if err != nil {
		if !confirming {
			m.setState(swaps.ApprovalFailed)
		}
		return fmt.Errorf("querying allowance: %w", err)
	}

	m.log.Debug("allowance evaluated",
		zap.String("deposit", deposit.String()),
		zap.String("allowance", current.String()),
		zap.String("spender", spender.Hex()))

	if current.Cmp(deposit) >= 0 {
		m.setState(swaps.ApprovalSufficient)
		return nil
	}
	if !confirming {
		m.setState(swaps.ApprovalInsufficient)
	}
	return nil
}

// ApprovalSubmitted is called once the external wallet service has
// broadcast the approval transaction. The machine re-checks the
// allowance on a fixed interval until it covers the deposit, the
// retry budget runs out, or ctx is canceled (view unmounted). Only
// one poll loop runs at a time; a newer submission supersedes it.
func (m *Machine) ApprovalSubmitted(ctx context.Context, txid string) {
	m.setState(swaps.ApprovalPending)

	m.mu.Lock()
	if m.cancelPoll != nil {
		m.cancelPoll()
	}
	pollCtx, cancel := context.WithCancel(ctx)
	m.cancelPoll = cancel
	m.mu.Unlock()

	m.log.Debug("approval transaction submitted, waiting for confirmation",
		zap.String("txid", txid),
		zap.Duration("interval", m.pollInterval))

	m.setState(swaps.ApprovalConfirming)
	go m.pollUntilConfirmed(pollCtx)
}

// Stop cancels any in-flight confirming loop without changing state.
func (m *Machine) Stop() {
	m.mu.Lock()
	if m.cancelPoll != nil {
		m.cancelPoll()
		m.cancelPoll = nil
	}
	m.mu.Unlock()
}

func (m *Machine) pollUntilConfirmed(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= m.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			m.log.Debug("allowance polling stopped", zap.Int("attempts", attempt-1))
			return
		case <-ticker.C:
		}

		if err := m.evaluate(ctx, true); err != nil {
			// Transient indexer failures retry within the budget.
			m.log.Warn("allowance poll failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		if m.State() == swaps.ApprovalSufficient {
			return
		}
	}

	m.log.Warn("approval did not confirm within retry budget",
		zap.Int("max_polls", m.maxPolls))
	m.setState(swaps.ApprovalFailed)
}
