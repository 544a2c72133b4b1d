package service

// PriceQuote holds the derived amounts for one event at checkout. The
// unit price is the stored base price converted into display currency;
// the service fee is a fixed percentage of that converted price,
// computed once at load time and charged once per booking regardless
// of ticket count.
type PriceQuote struct {
	UnitPrice  int64
	ServiceFee int64
}

// NewPriceQuote converts a base price and derives the service fee
func NewPriceQuote(basePrice, conversionRate, feePct int64) PriceQuote {
	unit := basePrice * conversionRate
	return PriceQuote{
		UnitPrice:  unit,
		ServiceFee: unit * feePct / 100,
	}
}

// Total returns unit price times ticket count plus the service fee
func (q PriceQuote) Total(ticketCount int) int64 {
	return q.UnitPrice*int64(ticketCount) + q.ServiceFee
}
