package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wastedash/internal/core"
	"wastedash/internal/report"
	"wastedash/internal/store"
)

// AllSentinel is the query value meaning "no restriction" for the
// customer and waste type parameters.
const AllSentinel = "All"

const dateLayout = "2006-01-02"

// parseFilterSpec builds a normalized filter spec from query parameters.
//
//	start, end    YYYY-MM-DD, both default to the incoming date bounds
//	customer      exact name, or "All" / empty for every customer
//	types         comma separated identifiers, "All" / empty for every type
//	price_status  any | priced | unpriced
func parseFilterSpec(r *http.Request, st *store.Store) (report.Spec, error) {
	q := r.URL.Query()
	spec := report.Spec{}

	startStr := strings.TrimSpace(q.Get("start"))
	endStr := strings.TrimSpace(q.Get("end"))
	if (startStr == "") != (endStr == "") {
		return report.Spec{}, fmt.Errorf("start and end must be provided together")
	}
	if startStr != "" {
		start, err := time.Parse(dateLayout, startStr)
		if err != nil {
			return report.Spec{}, fmt.Errorf("invalid start date %q: want YYYY-MM-DD", startStr)
		}
		end, err := time.Parse(dateLayout, endStr)
		if err != nil {
			return report.Spec{}, fmt.Errorf("invalid end date %q: want YYYY-MM-DD", endStr)
		}
		spec.Dates = core.DateRange{Start: core.DateOnly(start), End: core.DateOnly(end)}
	}

	if customer := sanitizeInput(q.Get("customer")); customer != "" && customer != AllSentinel {
		spec.Customer = customer
	}

	if typesStr := sanitizeInput(q.Get("types")); typesStr != "" {
		var types []string
		for _, t := range strings.Split(typesStr, ",") {
			if t = strings.TrimSpace(t); t == AllSentinel {
				// "All" anywhere in the list lifts the restriction.
				types = nil
				break
			} else if t != "" {
				types = append(types, t)
			}
		}
		// A list of only blanks means no restriction, same as absent.
		spec.WasteTypes = types
	}

	if price := sanitizeInput(q.Get("price_status")); price != "" {
		spec.Price = report.PriceStatus(price)
	}

	return report.Normalize(spec, st)
}

// parseOrigin reads the origin query parameter for the records listing.
func parseOrigin(r *http.Request) (core.Origin, error) {
	switch v := sanitizeInput(r.URL.Query().Get("origin")); v {
	case "incoming":
		return core.Incoming, nil
	case "outgoing":
		return core.Outgoing, nil
	default:
		return "", fmt.Errorf("invalid origin %q: want incoming or outgoing", v)
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// bearerToken extracts the token from an Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
