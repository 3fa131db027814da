package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swapcore/allowance"
	"swapcore/db"
	"swapcore/swaps"
)

// noOffersWarning is the terminal message when no provider can serve
// the request.
const noOffersWarning = "There are no swap offers available for your selection at this moment. Please try again later or adjust the amount."

type event interface{}

type submitEvent struct {
	req swaps.QuoteRequest
}

// offerUpdate is one adapter completion. The reducer drops updates
// whose seq does not match the current round.
type offerUpdate struct {
	seq   uint64
	key   string
	offer swaps.Offer
}

type settleEvent struct {
	seq uint64
}

type slippageEvent struct {
	key   string
	value decimal.Decimal
}

type routeEvent struct {
	key      string
	routeKey string
}

type approvalEvent struct {
	seq   uint64
	key   string
	state swaps.ApprovalState
}

type approvalTxEvent struct {
	key   string
	txid  string
	reply chan error
}

// round is the reducer-owned state of one aggregation round. Nothing
// outside the reducer goroutine touches it.
type round struct {
	seq         uint64
	req         swaps.QuoteRequest
	ctx         context.Context
	cancel      context.CancelFunc
	offers      map[string]swaps.Offer
	order       []string
	outstanding int
	settled     bool
	warning     string
	selectedKey string
	settleTimer *time.Timer
	machines    map[string]*allowance.Machine
}

func (r *round) teardown() {
	r.cancel()
	if r.settleTimer != nil {
		r.settleTimer.Stop()
	}
	for _, m := range r.machines {
		m.Stop()
	}
}

// reduce is the single goroutine owning round state. It runs from New
// until Close.
func (e *Engine) reduce() {
	var cur *round
	var seq uint64

	for {
		select {
		case <-e.done:
			if cur != nil {
				cur.teardown()
			}
			e.mu.Lock()
			for _, ch := range e.subs {
				close(ch)
			}
			e.subs = nil
			e.mu.Unlock()
			return

		case ev := <-e.events:
			switch ev := ev.(type) {
			case submitEvent:
				if cur != nil {
					cur.teardown()
				}
				seq++
				cur = e.startRound(seq, ev.req)

			case offerUpdate:
				if cur == nil || ev.seq != cur.seq {
					e.log.Debug("dropping stale offer update",
						zap.Uint64("seq", ev.seq),
						zap.String("provider", ev.key))
					continue
				}
				e.applyOffer(cur, ev)

			case settleEvent:
				if cur == nil || ev.seq != cur.seq || cur.settled {
					continue
				}
				e.finalize(cur)

			case slippageEvent:
				if cur == nil {
					continue
				}
				e.applySlippage(cur, ev.key, ev.value)

			case routeEvent:
				if cur == nil {
					continue
				}
				e.applyRoute(cur, ev.key, ev.routeKey)

			case approvalEvent:
				if cur == nil || ev.seq != cur.seq {
					continue
				}
				e.applyApproval(cur, ev.key, ev.state)

			case approvalTxEvent:
				ev.reply <- e.forwardApprovalTx(cur, ev.key, ev.txid)
			}
		}
	}
}

// startRound validates the request, fans out to eligible providers and
// publishes the initial loading snapshot. Invalid requests and empty
// eligible sets settle immediately with a terminal warning.
func (e *Engine) startRound(seq uint64, req swaps.QuoteRequest) *round {
	ctx, cancel := context.WithCancel(context.Background())
	r := &round{
		seq:      seq,
		req:      req,
		ctx:      ctx,
		cancel:   cancel,
		offers:   make(map[string]swaps.Offer),
		machines: make(map[string]*allowance.Machine),
	}

	if err := req.Validate(); err != nil {
		e.log.Info("request rejected", zap.Uint64("seq", seq), zap.Error(err))
		r.settled = true
		r.warning = noOffersWarning
		e.publish(e.snapshotOf(r))
		e.record(r)
		return r
	}

	for _, key := range e.order {
		p := e.providers[key]
		if !p.SupportsPair(req) {
			continue
		}
		r.order = append(r.order, key)
		r.offers[key] = swaps.Offer{
			ProviderKey: key,
			DisplayName: p.DisplayName(),
			State:       swaps.OfferLoading,
		}
	}

	if len(r.order) == 0 {
		e.log.Info("no provider supports pair",
			zap.Uint64("seq", seq),
			zap.String("pair", req.Key()))
		r.settled = true
		r.warning = noOffersWarning
		e.publish(e.snapshotOf(r))
		e.record(r)
		return r
	}

	e.log.Info("round started",
		zap.Uint64("seq", seq),
		zap.String("pair", req.Key()),
		zap.Int("providers", len(r.order)))

	r.outstanding = len(r.order)
	e.publish(e.snapshotOf(r))

	for _, key := range r.order {
		go e.fetch(r.ctx, seq, e.providers[key], req)
	}
	return r
}

// fetch runs one adapter call and posts its result. It never lets an
// adapter failure escape as anything but a typed offer state.
func (e *Engine) fetch(ctx context.Context, seq uint64, p swaps.Provider, req swaps.QuoteRequest) {
	quote, err := p.GetQuote(ctx, req)
	e.post(offerUpdate{
		seq:   seq,
		key:   p.Key(),
		offer: e.buildOffer(p, req, quote, err),
	})
}

// buildOffer converts an adapter result into its display offer.
func (e *Engine) buildOffer(p swaps.Provider, req swaps.QuoteRequest, quote swaps.NormalizedQuote, err error) swaps.Offer {
	offer := swaps.Offer{
		ProviderKey: p.Key(),
		DisplayName: p.DisplayName(),
	}

	if err != nil {
		perr := swaps.AsProviderError(p.Key(), err)
		switch perr.Reason {
		case swaps.ReasonOutOfLimits:
			offer.State = swaps.OfferOutOfLimits
			offer.ErrorMsg = perr.Message
		case swaps.ReasonNoRouteFound, swaps.ReasonPairNotSupported:
			// Hidden from display rather than shown failed.
			offer.State = swaps.OfferError
		default:
			offer.State = swaps.OfferError
			offer.ErrorMsg = perr.Message
		}
		return offer
	}

	offer.State = swaps.OfferSuccess
	offer.AmountReceiving = quote.AmountReceiving
	offer.Rate = quote.Rate
	offer.RateFiat = quote.RateFiat
	offer.Slippage = quote.Slippage
	offer.HasSlippageOpts = !quote.Slippage.IsZero()
	offer.EstimatedSeconds = quote.EstimatedSeconds
	offer.Routes = quote.Routes
	offer.SelectedRouteKey = quote.SelectedRouteKey
	offer.RequiresApproval = quote.RequiresApproval
	if quote.RequiresApproval {
		offer.Approval = swaps.ApprovalUnknown
	}
	if route := routeByKey(quote.Routes, quote.SelectedRouteKey); route != nil {
		offer.ProvidersPath = route.Path
	}
	if offer.HasSlippageOpts {
		offer.MinReceive = swaps.SlippageMinReceive(offer.AmountReceiving, offer.Slippage)
	}
	return offer
}

func (e *Engine) applyOffer(r *round, ev offerUpdate) {
	r.offers[ev.key] = ev.offer
	r.outstanding--
	e.publish(e.snapshotOf(r))

	if r.outstanding == 0 && !r.settled {
		seq := r.seq
		r.settleTimer = time.AfterFunc(e.settle, func() {
			e.post(settleEvent{seq: seq})
		})
	}
}

// finalize runs best-offer selection, publishes the settled snapshot,
// records the round and starts the allowance check for a selected
// offer that needs one.
func (e *Engine) finalize(r *round) {
	r.settled = true

	best := swaps.BestOffer(r.offers, r.order)
	if best == nil {
		r.warning = noOffersWarning
	} else {
		r.selectedKey = best.ProviderKey
	}

	e.log.Info("round settled",
		zap.Uint64("seq", r.seq),
		zap.String("selected", r.selectedKey),
		zap.String("warning", r.warning))

	e.publish(e.snapshotOf(r))
	e.record(r)

	if best != nil && best.RequiresApproval {
		e.startAllowanceCheck(r, best.ProviderKey)
	}
}

// startAllowanceCheck builds (or rebuilds) the allowance machine for a
// provider's offer and kicks the initial sufficiency check against the
// offer's selected-route spender.
func (e *Engine) startAllowanceCheck(r *round, key string) {
	offer, ok := r.offers[key]
	if !ok || !offer.RequiresApproval {
		return
	}

	if prev, ok := r.machines[key]; ok {
		prev.Stop()
	}

	m := allowance.NewMachine(e.wallet, e.indexer, e.log, e.machineOpts...)
	r.machines[key] = m

	seq := r.seq
	m.OnTransition(func(s swaps.ApprovalState) {
		e.post(approvalEvent{seq: seq, key: key, state: s})
	})

	var spender string
	if route := routeByKey(offer.Routes, offer.SelectedRouteKey); route != nil {
		spender = route.SpenderAddress
	}

	wallet := r.req.WalletFrom
	amount := r.req.AmountFrom
	go func() {
		if err := m.Check(r.ctx, wallet, spender, amount); err != nil {
			e.log.Warn("allowance check failed",
				zap.Uint64("seq", seq),
				zap.String("provider", key),
				zap.Error(err))
		}
	}()
}

func (e *Engine) applyApproval(r *round, key string, state swaps.ApprovalState) {
	offer, ok := r.offers[key]
	if !ok {
		return
	}
	offer.Approval = state
	r.offers[key] = offer
	e.publish(e.snapshotOf(r))
}

func (e *Engine) applySlippage(r *round, key string, value decimal.Decimal) {
	offer, ok := r.offers[key]
	if !ok || offer.State != swaps.OfferSuccess || !offer.HasSlippageOpts {
		return
	}
	offer.Slippage = swaps.ClampSlippage(value)
	offer.MinReceive = swaps.SlippageMinReceive(offer.AmountReceiving, offer.Slippage)
	r.offers[key] = offer
	e.publish(e.snapshotOf(r))
}

// applyRoute switches an offer's headline numbers to another of its
// routes. The spender can differ between routes, so a selected offer
// that needs approval re-checks its allowance.
func (e *Engine) applyRoute(r *round, key, routeKey string) {
	offer, ok := r.offers[key]
	if !ok || offer.State != swaps.OfferSuccess {
		return
	}
	route := routeByKey(offer.Routes, routeKey)
	if route == nil {
		e.log.Debug("unknown route selected",
			zap.String("provider", key),
			zap.String("route", routeKey))
		return
	}

	offer.SelectedRouteKey = route.Key
	offer.AmountReceiving = route.AmountReceiving
	offer.ProvidersPath = route.Path
	offer.Slippage = route.Slippage
	offer.EstimatedSeconds = route.EstimatedSeconds
	if r.req.AmountFrom.IsPositive() {
		offer.Rate = offer.AmountReceiving.DivRound(r.req.AmountFrom, 18)
	}
	if offer.HasSlippageOpts {
		offer.MinReceive = swaps.SlippageMinReceive(offer.AmountReceiving, offer.Slippage)
	}
	r.offers[key] = offer

	if r.settled {
		if best := swaps.BestOffer(r.offers, r.order); best != nil {
			r.selectedKey = best.ProviderKey
		}
		if offer.RequiresApproval {
			e.startAllowanceCheck(r, key)
		}
	}
	e.publish(e.snapshotOf(r))
}

func (e *Engine) forwardApprovalTx(r *round, key, txid string) error {
	if r == nil {
		return fmt.Errorf("no active round")
	}
	m, ok := r.machines[key]
	if !ok {
		return fmt.Errorf("no allowance check in progress for %s", key)
	}
	m.ApprovalSubmitted(r.ctx, txid)
	return nil
}

// snapshotOf renders the round as a published Update: offers in
// display order, hidden ones dropped, selected offer attached once
// settled.
func (e *Engine) snapshotOf(r *round) Update {
	u := Update{
		Seq:     r.seq,
		Warning: r.warning,
		Settled: r.settled,
	}
	for _, key := range r.order {
		offer := r.offers[key]
		if offer.Hidden() {
			continue
		}
		u.Offers = append(u.Offers, offer)
		if r.settled && key == r.selectedKey {
			selected := offer
			u.Selected = &selected
		}
	}
	return u
}

// record persists the finalized round, best-effort.
func (e *Engine) record(r *round) {
	if e.store == nil {
		return
	}

	params := db.InsertQuoteRoundParams{
		Seq:        r.seq,
		CoinFrom:   r.req.CoinFrom,
		ChainFrom:  r.req.ChainFrom,
		CoinTo:     r.req.CoinTo,
		ChainTo:    r.req.ChainTo,
		AmountFrom: r.req.AmountFrom.String(),
		OfferCount: len(r.order),
		Warning:    db.ToNullString(r.warning),
	}
	if r.selectedKey != "" {
		selected := r.offers[r.selectedKey]
		params.SelectedProvider = db.ToNullString(r.selectedKey)
		params.AmountReceiving = db.ToNullString(selected.AmountReceiving.String())
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.store.InsertQuoteRound(ctx, params); err != nil {
			e.log.Warn("recording round failed", zap.Uint64("seq", r.seq), zap.Error(err))
		}
	}()
}

func routeByKey(routes []swaps.Route, key string) *swaps.Route {
	for i := range routes {
		if routes[i].Key == key {
			return &routes[i]
		}
	}
	return nil
}
