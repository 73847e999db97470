package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"wastedash/internal/audit"
	"wastedash/internal/auth"
	"wastedash/internal/core"
	"wastedash/internal/export"
	applog "wastedash/internal/log"
	"wastedash/internal/report"
)

const sessionCookie = "wastedash_session"

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = sanitizeInput(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	logger := applog.FromContext(r.Context())
	token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Warn("Login rejected", applog.FieldUser, req.Username)
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		logger.Error("Login failed", applog.FieldError, err, applog.FieldUser, req.Username)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	s.audit.Publish(r.Context(), audit.NewEvent(audit.KindLogin, req.Username, ""))
	logger.Info("Login succeeded", applog.FieldUser, req.Username)
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// handleFilters returns the observed filter domain: customers, waste
// types and date bounds of the loaded data.
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, filtersView{
		Customers:  s.store.Customers(),
		WasteTypes: s.store.WasteTypes(),
		Dates:      viewDateRange(s.store.Bounds()),
	})
}

// serveReport runs a report builder over the filtered views, caching the
// marshaled payload per normalized spec.
func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, name string, build func(incoming, outgoing core.RecordSet, spec report.Spec) any) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	spec, err := parseFilterSpec(r, s.store)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := name + "|" + spec.Key()
	if payload, ok := s.reportCache.Get(key); ok {
		applog.FromContext(r.Context()).Debug("Report cache hit", "report", name)
		writeRawJSON(w, payload)
		return
	}

	incoming, outgoing := report.Apply(s.store, spec)
	payload, err := json.Marshal(build(incoming, outgoing, spec))
	if err != nil {
		applog.FromContext(r.Context()).Error("Report marshal error", applog.FieldError, err, "report", name)
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	s.reportCache.Set(key, payload)
	writeRawJSON(w, payload)
}

func writeRawJSON(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "kpis", func(in, out core.RecordSet, _ report.Spec) any {
		return viewKPIs(report.Summarize(in, out))
	})
}

func (s *Server) handleWasteTypes(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "waste-types", func(in, out core.RecordSet, _ report.Spec) any {
		series := viewTypeWeights(report.WeightByType(in))
		return append(series, viewTypeWeights(report.WeightByType(out))...)
	})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "trend", func(in, out core.RecordSet, _ report.Spec) any {
		series := viewDailyWeights(report.WeightByDate(in))
		return append(series, viewDailyWeights(report.WeightByDate(out))...)
	})
}

// handleCostPerTonne renders the daily weighted cost per tonne of the
// incoming view. The body is JSON null when the data has no Cost column.
func (s *Server) handleCostPerTonne(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "cost-per-tonne", func(in, _ core.RecordSet, _ report.Spec) any {
		return viewDailyCosts(report.CostPerTonneByDate(in))
	})
}

func (s *Server) handleGrades(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "grades", func(in, out core.RecordSet, _ report.Spec) any {
		return gradesView{
			Incoming: viewGrades(report.GradeDistribution(in)),
			Outgoing: viewGrades(report.GradeDistribution(out)),
		}
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	origin, err := parseOrigin(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	spec, err := parseFilterSpec(r, s.store)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	incoming, outgoing := report.Apply(s.store, spec)
	set := incoming
	if origin == core.Outgoing {
		set = outgoing
	}
	applog.FromContext(r.Context()).Debug("Records view served",
		applog.FieldOrigin, string(origin),
		applog.FieldRecords, len(set.Records))
	writeJSON(w, http.StatusOK, viewRecords(set))
}

// handleExport streams the filtered views as a two-sheet workbook.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	spec, err := parseFilterSpec(r, s.store)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger := applog.FromContext(r.Context())
	incoming, outgoing := report.Apply(s.store, spec)
	buf, err := export.Serialize(incoming, outgoing)
	if err != nil {
		logger.Error("Export failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to build workbook")
		return
	}

	filename := export.Filename(spec.Dates)
	s.audit.Publish(r.Context(), audit.NewEvent(audit.KindExport, currentUser(r.Context()), filename))
	logger.Info("Export generated",
		applog.FieldUser, currentUser(r.Context()),
		applog.FieldFilename, filename,
		applog.FieldRecords, len(incoming.Records)+len(outgoing.Records))

	w.Header().Set("Content-Type", export.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
