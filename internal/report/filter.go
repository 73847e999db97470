package report

import (
	"wastedash/internal/core"
	"wastedash/internal/store"
)

// Apply produces the filtered incoming and outgoing views for a normalized
// spec. Filters compose conjunctively and each row is judged against the
// spec alone, so application order cannot change the result. Either view
// may come back empty; that is a normal outcome.
func Apply(st *store.Store, spec Spec) (incoming, outgoing core.RecordSet) {
	incoming = filterSet(st.Incoming(), spec, true)
	outgoing = filterSet(st.Outgoing(), spec, false)
	return incoming, outgoing
}

func filterSet(set core.RecordSet, spec Spec, applyPrice bool) core.RecordSet {
	types := make(map[string]struct{}, len(spec.WasteTypes))
	for _, t := range spec.WasteTypes {
		types[t] = struct{}{}
	}

	out := core.RecordSet{
		Origin:   set.Origin,
		Columns:  set.Columns,
		HasCost:  set.HasCost,
		HasGrade: set.HasGrade,
	}
	for _, r := range set.Records {
		if !spec.Dates.Contains(r.TicketDate) {
			continue
		}
		if _, ok := types[r.WasteType]; !ok {
			continue
		}
		if spec.Customer != "" && r.Customer != spec.Customer {
			continue
		}
		if applyPrice && !matchesPrice(r, spec.Price) {
			continue
		}
		out.Records = append(out.Records, r)
	}
	return out
}

// matchesPrice treats a zero cost and an absent Cost column the same way:
// both are unpriced.
func matchesPrice(r core.Record, p PriceStatus) bool {
	switch p {
	case PricePriced:
		return r.Cost.IsPositive()
	case PriceUnpriced:
		return !r.Cost.IsPositive()
	default:
		return true
	}
}
