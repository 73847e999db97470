package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"wastedash/internal/core"
	"wastedash/internal/report"
)

// JSON views rendered by the API. Decimal quantities are serialized as
// strings so clients never round-trip them through binary floats.

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type dateRangeView struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type filtersView struct {
	Customers  []string      `json:"customers"`
	WasteTypes []string      `json:"waste_types"`
	Dates      dateRangeView `json:"dates"`
}

type kpisView struct {
	IncomingWeight  string `json:"incoming_weight"`
	OutgoingWeight  string `json:"outgoing_weight"`
	TotalCost       string `json:"total_cost"`
	AvgCostPerTonne string `json:"avg_cost_per_tonne"`
}

type typeWeightView struct {
	WasteType string `json:"waste_type"`
	Origin    string `json:"origin"`
	Weight    string `json:"weight"`
}

type dailyWeightView struct {
	Date   string `json:"date"`
	Origin string `json:"origin"`
	Weight string `json:"weight"`
}

type dailyCostView struct {
	Date         string `json:"date"`
	CostPerTonne string `json:"cost_per_tonne"`
}

type gradeWeightView struct {
	Grade  string `json:"grade"`
	Weight string `json:"weight"`
}

// gradesView carries one distribution per origin; a nil slice means the
// underlying sheet has no Grade column.
type gradesView struct {
	Incoming []gradeWeightView `json:"incoming"`
	Outgoing []gradeWeightView `json:"outgoing"`
}

type recordsView struct {
	Origin  string     `json:"origin"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Count   int        `json:"count"`
}

func viewDateRange(dr core.DateRange) dateRangeView {
	return dateRangeView{
		Start: dr.Start.Format(dateLayout),
		End:   dr.End.Format(dateLayout),
	}
}

func viewKPIs(k report.KPIs) kpisView {
	return kpisView{
		IncomingWeight:  k.IncomingWeight.String(),
		OutgoingWeight:  k.OutgoingWeight.String(),
		TotalCost:       k.TotalCost.String(),
		AvgCostPerTonne: k.AvgCostPerTonne.String(),
	}
}

func viewTypeWeights(series []report.TypeWeight) []typeWeightView {
	out := make([]typeWeightView, len(series))
	for i, p := range series {
		out[i] = typeWeightView{
			WasteType: p.WasteType,
			Origin:    string(p.Origin),
			Weight:    p.Weight.String(),
		}
	}
	return out
}

func viewDailyWeights(series []report.DailyWeight) []dailyWeightView {
	out := make([]dailyWeightView, len(series))
	for i, p := range series {
		out[i] = dailyWeightView{
			Date:   p.Date.Format(dateLayout),
			Origin: string(p.Origin),
			Weight: p.Weight.String(),
		}
	}
	return out
}

func viewDailyCosts(series []report.DailyCostPerTonne) []dailyCostView {
	out := make([]dailyCostView, len(series))
	for i, p := range series {
		out[i] = dailyCostView{
			Date:         p.Date.Format(dateLayout),
			CostPerTonne: p.CostPerTonne.String(),
		}
	}
	return out
}

func viewGrades(dist []report.GradeWeight) []gradeWeightView {
	if dist == nil {
		return nil
	}
	out := make([]gradeWeightView, len(dist))
	for i, g := range dist {
		out[i] = gradeWeightView{Grade: g.Grade, Weight: g.Weight.String()}
	}
	return out
}

func viewRecords(set core.RecordSet) recordsView {
	rows := make([][]string, len(set.Records))
	for i, r := range set.Records {
		rows[i] = r.Raw
	}
	return recordsView{
		Origin:  string(set.Origin),
		Columns: set.Columns,
		Rows:    rows,
		Count:   len(rows),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
