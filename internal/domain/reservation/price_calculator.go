package reservation

import (
	"stayfinder/internal/domain/listing"
)

type PriceCalculator interface {
	Quote(lst *listing.Listing, stay StayPeriod) Money
}

// NightlyPriceCalculator prices a stay as nightly rate times nights plus a
// flat service fee. Pricing is deliberately deterministic; rate calendars
// and negotiation are out of scope.
type NightlyPriceCalculator struct {
	serviceFeeCents int64
}

func NewNightlyPriceCalculator(serviceFeeCents int64) *NightlyPriceCalculator {
	return &NightlyPriceCalculator{serviceFeeCents: serviceFeeCents}
}

func (pc *NightlyPriceCalculator) Quote(lst *listing.Listing, stay StayPeriod) Money {
	total := lst.NightlyRateCents()*int64(stay.Nights()) + pc.serviceFeeCents
	return NewMoney(total)
}
