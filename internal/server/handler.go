package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/thesavant42/webhist/internal/db"
	"github.com/thesavant42/webhist/internal/history"
	"github.com/thesavant42/webhist/internal/models"
)

const maxRequestBody = 64 << 10

type investigator interface {
	Run(ctx context.Context, domain, queryType string) history.Result
	CertificateListing(ctx context.Context, domain string) string
}

type investigationStore interface {
	InsertInvestigation(inv models.Investigation) (int64, error)
	GetInvestigations(filter models.InvestigationFilter) ([]models.Investigation, int, error)
	GetInvestigation(id int64) (models.Investigation, error)
	GetInvestigatedDomains() ([]models.DomainSummary, error)
}

// toolRequest is the POST body. Input, when set, is the agent wire format
// "domain [QUERY_TYPE]" and wins over the separate fields.
type toolRequest struct {
	Input     string `json:"input"`
	Domain    string `json:"domain"`
	QueryType string `json:"query_type"`
}

// ToolHandler exposes the engine as an agent tool over HTTP
type ToolHandler struct {
	engine investigator
	store  investigationStore // nil when no database is configured
	logger *log.Logger
}

// NewToolHandler wires the engine and an optional investigation log.
// store and logger may be nil.
func NewToolHandler(engine investigator, store investigationStore, logger *log.Logger) *ToolHandler {
	return &ToolHandler{engine: engine, store: store, logger: logger}
}

func (h *ToolHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tools/web-history", h.WebHistory)
	r.Post("/tools/web-history", h.WebHistory)
	r.Get("/tools/ct-search", h.CTSearch)
	if h.store != nil {
		r.Get("/investigations", h.ListInvestigations)
		r.Get("/investigations/domains", h.ListDomains)
		r.Get("/investigations/{id}", h.GetInvestigation)
	}
}

// WebHistory runs one investigation. Reports and validation errors are both
// plain text with status 200; only an unreadable request body is a 400.
func (h *ToolHandler) WebHistory(w http.ResponseWriter, r *http.Request) {
	var req toolRequest
	if r.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	} else {
		q := r.URL.Query()
		req.Input = q.Get("input")
		req.Domain = q.Get("domain")
		req.QueryType = q.Get("query_type")
	}

	domain, queryType := req.Domain, req.QueryType
	if strings.TrimSpace(req.Input) != "" {
		domain, queryType = history.ParseToolInput(req.Input)
	}

	res := h.engine.Run(r.Context(), domain, queryType)
	if res.Valid {
		h.record(res)
	}
	writeText(w, http.StatusOK, res.Report)
}

// CTSearch returns the short certificate listing for ?domain=
func (h *ToolHandler) CTSearch(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, h.engine.CertificateListing(r.Context(), r.URL.Query().Get("domain")))
}

func (h *ToolHandler) ListInvestigations(w http.ResponseWriter, r *http.Request) {
	filter := models.InvestigationFilter{
		Domain: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("domain"))),
		Limit:  20,
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	investigations, total, err := h.store.GetInvestigations(filter)
	if err != nil {
		h.warn("failed to list investigations", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list investigations")
		return
	}
	if investigations == nil {
		investigations = []models.Investigation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"investigations": investigations,
		"total":          total,
		"limit":          filter.Limit,
		"offset":         filter.Offset,
	})
}

func (h *ToolHandler) GetInvestigation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid investigation id")
		return
	}

	inv, err := h.store.GetInvestigation(id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "investigation not found")
		return
	}
	if err != nil {
		h.warn("failed to load investigation", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load investigation")
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *ToolHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.store.GetInvestigatedDomains()
	if err != nil {
		h.warn("failed to list investigated domains", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list domains")
		return
	}
	if domains == nil {
		domains = []models.DomainSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"domains": domains})
}

// record logs the run when a store is configured. Failures never reach the caller.
func (h *ToolHandler) record(res history.Result) {
	if h.store == nil {
		return
	}
	_, err := h.store.InsertInvestigation(models.Investigation{
		Domain:           res.Domain,
		QueryType:        string(res.QueryType),
		Report:           res.Report,
		CertificateCount: res.CertificateCount,
		SnapshotCount:    res.SnapshotCount,
	})
	if err != nil {
		h.warn("failed to record investigation", "domain", res.Domain, "error", err)
	}
}

func (h *ToolHandler) warn(msg string, keyvals ...interface{}) {
	if h.logger != nil {
		h.logger.Warn(msg, keyvals...)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, text)
}
