package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"wastedash/internal/core"
)

// KPIs are the scalar summary metrics of a filtered view pair. All fields
// are defined for empty views: sums are zero and AvgCostPerTonne falls
// back to zero instead of dividing by a zero weight.
type KPIs struct {
	IncomingWeight  decimal.Decimal
	OutgoingWeight  decimal.Decimal
	TotalCost       decimal.Decimal
	AvgCostPerTonne decimal.Decimal
}

// Summarize computes the KPIs. AvgCostPerTonne is the weighted average
// (total cost over total weight), not a mean of per-row ratios.
func Summarize(incoming, outgoing core.RecordSet) KPIs {
	k := KPIs{
		IncomingWeight:  decimal.Zero,
		OutgoingWeight:  decimal.Zero,
		TotalCost:       decimal.Zero,
		AvgCostPerTonne: decimal.Zero,
	}
	for _, r := range incoming.Records {
		k.IncomingWeight = k.IncomingWeight.Add(r.NetWeight)
		k.TotalCost = k.TotalCost.Add(r.Cost)
	}
	for _, r := range outgoing.Records {
		k.OutgoingWeight = k.OutgoingWeight.Add(r.NetWeight)
	}
	if k.IncomingWeight.IsPositive() {
		k.AvgCostPerTonne = k.TotalCost.Div(k.IncomingWeight)
	}
	return k
}

// TypeWeight is one bar of the waste type breakdown, tagged with its
// origin so incoming and outgoing sums are never merged.
type TypeWeight struct {
	WasteType string
	Origin    core.Origin
	Weight    decimal.Decimal
}

// WeightByType groups one view by waste type and sums net weight.
// Results are sorted by identifier for deterministic output.
func WeightByType(set core.RecordSet) []TypeWeight {
	sums := map[string]decimal.Decimal{}
	for _, r := range set.Records {
		sums[r.WasteType] = sums[r.WasteType].Add(r.NetWeight)
	}
	out := make([]TypeWeight, 0, len(sums))
	for wt, w := range sums {
		out = append(out, TypeWeight{WasteType: wt, Origin: set.Origin, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WasteType < out[j].WasteType })
	return out
}

// DailyWeight is one point of the incoming vs outgoing trend.
type DailyWeight struct {
	Date   time.Time
	Origin core.Origin
	Weight decimal.Decimal
}

// WeightByDate groups one view by calendar date and sums net weight,
// sorted by date ascending.
func WeightByDate(set core.RecordSet) []DailyWeight {
	sums := map[time.Time]decimal.Decimal{}
	for _, r := range set.Records {
		d := core.DateOnly(r.TicketDate)
		sums[d] = sums[d].Add(r.NetWeight)
	}
	out := make([]DailyWeight, 0, len(sums))
	for d, w := range sums {
		out = append(out, DailyWeight{Date: d, Origin: set.Origin, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// DailyCostPerTonne is one point of the cost-per-tonne trend: the day's
// total cost over the day's total weight.
type DailyCostPerTonne struct {
	Date         time.Time
	CostPerTonne decimal.Decimal
}

// CostPerTonneByDate computes the weighted daily cost per tonne over the
// incoming view: cost and weight are summed independently per date, then
// divided. Dates whose total weight is zero are excluded rather than
// reported as a division result. Returns nil when the view has no Cost
// column.
func CostPerTonneByDate(incoming core.RecordSet) []DailyCostPerTonne {
	if !incoming.HasCost {
		return nil
	}
	costs := map[time.Time]decimal.Decimal{}
	weights := map[time.Time]decimal.Decimal{}
	for _, r := range incoming.Records {
		d := core.DateOnly(r.TicketDate)
		costs[d] = costs[d].Add(r.Cost)
		weights[d] = weights[d].Add(r.NetWeight)
	}
	out := make([]DailyCostPerTonne, 0, len(costs))
	for d, c := range costs {
		if !weights[d].IsPositive() {
			continue
		}
		out = append(out, DailyCostPerTonne{Date: d, CostPerTonne: c.Div(weights[d])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// GradeWeight is one slice of a grade distribution.
type GradeWeight struct {
	Grade  string
	Weight decimal.Decimal
}

// GradeDistribution groups one view by grade and sums net weight. The
// incoming and outgoing distributions are computed independently and
// never combined. Returns nil when the view has no Grade column.
func GradeDistribution(set core.RecordSet) []GradeWeight {
	if !set.HasGrade {
		return nil
	}
	sums := map[string]decimal.Decimal{}
	for _, r := range set.Records {
		sums[r.Grade] = sums[r.Grade].Add(r.NetWeight)
	}
	out := make([]GradeWeight, 0, len(sums))
	for g, w := range sums {
		out = append(out, GradeWeight{Grade: g, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Grade < out[j].Grade })
	return out
}
