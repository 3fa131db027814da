package swaps

// BestOffer picks the viable offer with the numerically largest
// receive amount. order is the provider declaration order and breaks
// ties: the earliest listed provider wins. Returns nil when no offer
// is viable.
//
// The function is pure and idempotent; the engine calls it repeatedly
// as offers stream in.
func BestOffer(offers map[string]Offer, order []string) *Offer {
	var best *Offer
	for _, key := range order {
		offer, ok := offers[key]
		if !ok || !offer.Viable() {
			continue
		}
		if best == nil || offer.AmountReceiving.GreaterThan(best.AmountReceiving) {
			o := offer
			best = &o
		}
	}
	return best
}
