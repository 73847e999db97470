package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wastedash/internal/core"
	"wastedash/internal/source"
	"wastedash/internal/store"
)

// row order: date, customer, waste type, weight, cost, grade
func buildStore(t *testing.T, incoming, outgoing [][]string) *store.Store {
	t.Helper()
	st, err := store.Load(
		source.Table{
			Name:   source.IncomingSheet,
			Header: []string{"Ticket Date", "Customer Name", "Waste Type ID", "Net Weight (tn)", "Cost", "Grade"},
			Rows:   incoming,
		},
		source.Table{
			Name:   source.OutgoingSheet,
			Header: []string{"Ticket Date", "Customer Name", "Waste Type ID", "Net Weight (tn)", "Grade"},
			Rows:   outgoing,
		},
	)
	if err != nil {
		t.Fatalf("store.Load() error = %v", err)
	}
	return st
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustNormalize(t *testing.T, spec Spec, st *store.Store) Spec {
	t.Helper()
	norm, err := Normalize(spec, st)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	return norm
}

func sampleStore(t *testing.T) *store.Store {
	t.Helper()
	return buildStore(t,
		[][]string{
			{"2024-01-02", "Acme", "MIX-01", "10", "100", "Ferrous"},
			{"2024-01-02", "Borough", "ALU-02", "1", "50", "Non-Ferrous"},
			{"2024-01-05", "Acme", "MIX-01", "5", "0", "Ferrous"},
			{"2024-01-09", "Borough", "ALU-02", "3", "90", "Non-Ferrous"},
		},
		[][]string{
			{"2024-01-03", "Acme", "MIX-01", "8", "Ferrous"},
			{"2024-01-09", "Borough", "ALU-02", "2", "Non-Ferrous"},
		},
	)
}

func TestNormalizeDefaults(t *testing.T) {
	st := sampleStore(t)
	spec := mustNormalize(t, Spec{}, st)

	if !spec.Dates.Start.Equal(date(2024, 1, 2)) || !spec.Dates.End.Equal(date(2024, 1, 9)) {
		t.Errorf("default date range = %v..%v, want incoming bounds", spec.Dates.Start, spec.Dates.End)
	}
	if len(spec.WasteTypes) != 2 {
		t.Errorf("default waste types = %v, want full observed set", spec.WasteTypes)
	}
	if spec.Price != PriceAny {
		t.Errorf("default price status = %q, want any", spec.Price)
	}
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	st := sampleStore(t)

	if _, err := Normalize(Spec{Dates: core.DateRange{Start: date(2024, 2, 1), End: date(2024, 1, 1)}}, st); err == nil {
		t.Error("Normalize() accepted inverted date range")
	}
	if _, err := Normalize(Spec{Price: PriceStatus("expensive")}, st); err == nil {
		t.Error("Normalize() accepted unknown price status")
	}
}

func TestApplyConjunction(t *testing.T) {
	st := sampleStore(t)
	spec := mustNormalize(t, Spec{
		Dates:      core.DateRange{Start: date(2024, 1, 1), End: date(2024, 1, 5)},
		Customer:   "Acme",
		WasteTypes: []string{"MIX-01"},
	}, st)

	in, out := Apply(st, spec)
	if len(in.Records) != 2 {
		t.Fatalf("incoming records = %d, want 2", len(in.Records))
	}
	if len(out.Records) != 1 {
		t.Fatalf("outgoing records = %d, want 1", len(out.Records))
	}
	// Same customer constraint on both views.
	if out.Records[0].Customer != "Acme" {
		t.Errorf("outgoing customer = %q, want Acme", out.Records[0].Customer)
	}
}

func TestApplyCommutativity(t *testing.T) {
	st := sampleStore(t)
	full := mustNormalize(t, Spec{}, st)

	joint := mustNormalize(t, Spec{
		Dates:      core.DateRange{Start: date(2024, 1, 2), End: date(2024, 1, 5)},
		Customer:   "Acme",
		WasteTypes: []string{"MIX-01"},
		Price:      PricePriced,
	}, st)

	// Single-constraint specs, applied one at a time in both orders.
	dateOnly := full
	dateOnly.Dates = joint.Dates
	customerOnly := full
	customerOnly.Customer = joint.Customer
	typeOnly := full
	typeOnly.WasteTypes = joint.WasteTypes
	priceOnly := full
	priceOnly.Price = joint.Price

	steps := []Spec{dateOnly, customerOnly, typeOnly, priceOnly}
	forward := st.Incoming()
	for _, s := range steps {
		forward = filterSet(forward, s, true)
	}
	backward := st.Incoming()
	for i := len(steps) - 1; i >= 0; i-- {
		backward = filterSet(backward, steps[i], true)
	}
	jointIn, _ := Apply(st, joint)

	for name, got := range map[string]core.RecordSet{"forward": forward, "backward": backward} {
		if len(got.Records) != len(jointIn.Records) {
			t.Fatalf("%s pass: %d records, joint: %d", name, len(got.Records), len(jointIn.Records))
		}
		for i := range got.Records {
			if !got.Records[i].TicketDate.Equal(jointIn.Records[i].TicketDate) ||
				got.Records[i].Customer != jointIn.Records[i].Customer {
				t.Errorf("%s pass: record %d differs from joint application", name, i)
			}
		}
	}
}

func TestApplyIdempotence(t *testing.T) {
	st := sampleStore(t)
	spec := mustNormalize(t, Spec{Customer: "Borough", Price: PricePriced}, st)

	in1, out1 := Apply(st, spec)
	in2, out2 := Apply(st, spec)
	if len(in1.Records) != len(in2.Records) || len(out1.Records) != len(out2.Records) {
		t.Fatalf("repeated Apply() diverged: %d/%d vs %d/%d",
			len(in1.Records), len(out1.Records), len(in2.Records), len(out2.Records))
	}
}

func TestPriceStatusOnlyAffectsIncoming(t *testing.T) {
	st := sampleStore(t)

	any := mustNormalize(t, Spec{Price: PriceAny}, st)
	priced := mustNormalize(t, Spec{Price: PricePriced}, st)
	unpriced := mustNormalize(t, Spec{Price: PriceUnpriced}, st)

	_, outAny := Apply(st, any)
	inPriced, outPriced := Apply(st, priced)
	inUnpriced, outUnpriced := Apply(st, unpriced)

	if len(inPriced.Records) != 3 {
		t.Errorf("priced incoming = %d, want 3", len(inPriced.Records))
	}
	if len(inUnpriced.Records) != 1 {
		t.Errorf("unpriced incoming = %d, want 1", len(inUnpriced.Records))
	}
	// Outgoing tickets carry no cost model; the filter must not touch them.
	if len(outPriced.Records) != len(outAny.Records) || len(outUnpriced.Records) != len(outAny.Records) {
		t.Errorf("price status changed outgoing view: any=%d priced=%d unpriced=%d",
			len(outAny.Records), len(outPriced.Records), len(outUnpriced.Records))
	}
}

func TestSummarizeWeightedAverage(t *testing.T) {
	st := buildStore(t, [][]string{
		{"2024-01-02", "Acme", "MIX-01", "10", "100", ""},
		{"2024-01-03", "Acme", "MIX-01", "1", "50", ""},
	}, nil)

	in, out := Apply(st, mustNormalize(t, Spec{}, st))
	k := Summarize(in, out)

	want := decimal.NewFromInt(150).Div(decimal.NewFromInt(11))
	if !k.AvgCostPerTonne.Equal(want) {
		t.Errorf("AvgCostPerTonne = %s, want %s (weighted)", k.AvgCostPerTonne, want)
	}
	// The superseded per-row mean would be (10 + 50) / 2 = 30.
	if k.AvgCostPerTonne.Equal(decimal.NewFromInt(30)) {
		t.Error("AvgCostPerTonne equals mean of per-row ratios; must be weighted")
	}
	if !k.TotalCost.Equal(decimal.NewFromInt(150)) {
		t.Errorf("TotalCost = %s, want 150", k.TotalCost)
	}
}

func TestSummarizeZeroWeight(t *testing.T) {
	st := buildStore(t, [][]string{
		{"2024-01-02", "Acme", "MIX-01", "0", "100", ""},
	}, nil)

	in, out := Apply(st, mustNormalize(t, Spec{}, st))
	k := Summarize(in, out)
	if !k.AvgCostPerTonne.IsZero() {
		t.Errorf("AvgCostPerTonne = %s, want 0 for zero total weight", k.AvgCostPerTonne)
	}
}

func TestEmptyViewsAreTotal(t *testing.T) {
	st := sampleStore(t)
	spec := mustNormalize(t, Spec{
		Dates: core.DateRange{Start: date(2030, 1, 1), End: date(2030, 12, 31)},
	}, st)

	in, out := Apply(st, spec)
	if !in.Empty() || !out.Empty() {
		t.Fatalf("expected empty views, got %d/%d", len(in.Records), len(out.Records))
	}

	k := Summarize(in, out)
	if !k.IncomingWeight.IsZero() || !k.OutgoingWeight.IsZero() || !k.TotalCost.IsZero() || !k.AvgCostPerTonne.IsZero() {
		t.Errorf("KPIs over empty views not all zero: %+v", k)
	}
	if got := WeightByType(in); len(got) != 0 {
		t.Errorf("WeightByType over empty view = %v, want empty", got)
	}
	if got := WeightByDate(out); len(got) != 0 {
		t.Errorf("WeightByDate over empty view = %v, want empty", got)
	}
	if got := CostPerTonneByDate(in); len(got) != 0 {
		t.Errorf("CostPerTonneByDate over empty view = %v, want empty", got)
	}
	if got := GradeDistribution(in); len(got) != 0 {
		t.Errorf("GradeDistribution over empty view = %v, want empty", got)
	}
}

func TestKPIConservationOverDatePartition(t *testing.T) {
	st := sampleStore(t)

	whole := mustNormalize(t, Spec{}, st)
	in, out := Apply(st, whole)
	total := Summarize(in, out).IncomingWeight

	parts := []core.DateRange{
		{Start: date(2024, 1, 2), End: date(2024, 1, 4)},
		{Start: date(2024, 1, 5), End: date(2024, 1, 7)},
		{Start: date(2024, 1, 8), End: date(2024, 1, 9)},
	}
	sum := decimal.Zero
	for _, dr := range parts {
		spec := mustNormalize(t, Spec{Dates: dr}, st)
		pin, pout := Apply(st, spec)
		sum = sum.Add(Summarize(pin, pout).IncomingWeight)
	}
	if !sum.Equal(total) {
		t.Errorf("partitioned incoming weight = %s, whole range = %s", sum, total)
	}
}

func TestWeightByTypeKeepsOriginsApart(t *testing.T) {
	st := sampleStore(t)
	in, out := Apply(st, mustNormalize(t, Spec{}, st))

	inSeries := WeightByType(in)
	outSeries := WeightByType(out)

	if len(inSeries) != 2 {
		t.Fatalf("incoming series = %d groups, want 2", len(inSeries))
	}
	// Sorted by identifier: ALU-02 then MIX-01.
	if inSeries[0].WasteType != "ALU-02" || !inSeries[0].Weight.Equal(decimal.NewFromInt(4)) {
		t.Errorf("incoming ALU-02 = %+v, want weight 4", inSeries[0])
	}
	if inSeries[1].WasteType != "MIX-01" || !inSeries[1].Weight.Equal(decimal.NewFromInt(15)) {
		t.Errorf("incoming MIX-01 = %+v, want weight 15", inSeries[1])
	}
	for _, p := range inSeries {
		if p.Origin != core.Incoming {
			t.Errorf("incoming series point tagged %q", p.Origin)
		}
	}
	// MIX-01 appears in both sets; the outgoing sum must not absorb the
	// incoming one.
	if outSeries[1].WasteType != "MIX-01" || !outSeries[1].Weight.Equal(decimal.NewFromInt(8)) {
		t.Errorf("outgoing MIX-01 = %+v, want weight 8", outSeries[1])
	}
}

func TestCostPerTonneByDateIsWeighted(t *testing.T) {
	st := buildStore(t, [][]string{
		// Same day: weighted cpt = (100+50)/(10+1), not mean(10, 50).
		{"2024-01-02", "Acme", "MIX-01", "10", "100", ""},
		{"2024-01-02", "Acme", "MIX-01", "1", "50", ""},
		// Zero-weight day must be excluded, not divided.
		{"2024-01-03", "Acme", "MIX-01", "0", "75", ""},
	}, nil)

	in, _ := Apply(st, mustNormalize(t, Spec{}, st))
	series := CostPerTonneByDate(in)
	if len(series) != 1 {
		t.Fatalf("series length = %d, want 1 (zero-weight day excluded)", len(series))
	}
	want := decimal.NewFromInt(150).Div(decimal.NewFromInt(11))
	if !series[0].CostPerTonne.Equal(want) {
		t.Errorf("daily cost per tonne = %s, want %s", series[0].CostPerTonne, want)
	}
}

func TestCostPerTonneByDateWithoutCostColumn(t *testing.T) {
	st, err := store.Load(
		source.Table{
			Name:   source.IncomingSheet,
			Header: []string{"Ticket Date", "Customer Name", "Waste Type ID", "Net Weight (tn)"},
			Rows:   [][]string{{"2024-01-02", "Acme", "MIX-01", "10"}},
		},
		source.Table{
			Name:   source.OutgoingSheet,
			Header: []string{"Ticket Date", "Customer Name", "Waste Type ID", "Net Weight (tn)"},
		},
	)
	if err != nil {
		t.Fatalf("store.Load() error = %v", err)
	}

	in, out := Apply(st, mustNormalize(t, Spec{}, st))
	if got := CostPerTonneByDate(in); got != nil {
		t.Errorf("CostPerTonneByDate without Cost column = %v, want nil", got)
	}
	// Total cost is zero, not an error, when the column is absent.
	if k := Summarize(in, out); !k.TotalCost.IsZero() {
		t.Errorf("TotalCost without Cost column = %s, want 0", k.TotalCost)
	}
}

func TestGradeIsolation(t *testing.T) {
	st := buildStore(t,
		[][]string{
			{"2024-01-02", "Acme", "MIX-01", "5", "0", "Ferrous"},
			{"2024-01-02", "Acme", "MIX-01", "3", "0", "Non-Ferrous"},
		},
		[][]string{
			{"2024-01-02", "Acme", "MIX-01", "2", "Ferrous"},
		},
	)

	in, out := Apply(st, mustNormalize(t, Spec{}, st))
	inDist := GradeDistribution(in)
	outDist := GradeDistribution(out)

	if len(inDist) != 2 {
		t.Fatalf("incoming distribution = %d grades, want 2", len(inDist))
	}
	if inDist[0].Grade != "Ferrous" || !inDist[0].Weight.Equal(decimal.NewFromInt(5)) {
		t.Errorf("incoming Ferrous = %+v, want weight 5", inDist[0])
	}
	if inDist[1].Grade != "Non-Ferrous" || !inDist[1].Weight.Equal(decimal.NewFromInt(3)) {
		t.Errorf("incoming Non-Ferrous = %+v, want weight 3", inDist[1])
	}
	if len(outDist) != 1 || !outDist[0].Weight.Equal(decimal.NewFromInt(2)) {
		t.Errorf("outgoing distribution = %+v, want Ferrous 2 only", outDist)
	}
}

func TestSpecKeyStableUnderTypeOrder(t *testing.T) {
	st := sampleStore(t)
	a := mustNormalize(t, Spec{WasteTypes: []string{"MIX-01", "ALU-02"}}, st)
	b := mustNormalize(t, Spec{WasteTypes: []string{"ALU-02", "MIX-01"}}, st)
	if a.Key() != b.Key() {
		t.Errorf("Key() differs under waste type ordering: %q vs %q", a.Key(), b.Key())
	}
	c := mustNormalize(t, Spec{Customer: "Acme"}, st)
	if a.Key() == c.Key() {
		t.Error("Key() identical for different specs")
	}
}

func TestSpecKeyDistinguishesFieldBoundaries(t *testing.T) {
	a := Spec{Customer: "Acme|MIX-01", WasteTypes: []string{"ALU"}, Price: PriceAny}
	b := Spec{Customer: "Acme", WasteTypes: []string{"MIX-01|ALU"}, Price: PriceAny}
	if a.Key() == b.Key() {
		t.Errorf("Key() collides across field boundaries: %q", a.Key())
	}
	c := Spec{Customer: "Acme", WasteTypes: []string{"MIX-01", "ALU"}, Price: PriceAny}
	d := Spec{Customer: "Acme", WasteTypes: []string{"MIX-01,ALU"}, Price: PriceAny}
	if c.Key() == d.Key() {
		t.Errorf("Key() collides across type list boundaries: %q", c.Key())
	}
}
