package financehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"erp/internal/domain/audit"
	"erp/internal/domain/authz"
	"erp/internal/domain/finance"
	"erp/internal/transport/http/api"
	"erp/internal/transport/http/middleware"
	"erp/internal/transport/http/shared"
)

type Handler struct {
	Finance *finance.Service
	Audit   *audit.Service
}

func NewHandler(fin *finance.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Finance: fin, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/finance", func(r chi.Router) {
		r.With(middleware.RequireOperation(authz.OpFinanceView)).Get("/transactions", h.handleList)
		r.With(middleware.RequireOperation(authz.OpFinanceCreate)).Post("/transactions", h.handleRecord)
		r.With(middleware.RequireOperation(authz.OpFinanceView)).Get("/report", h.handleReport)
	})
}

type transactionPayload struct {
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
	Reference   string  `json:"reference"`
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("category", payload.Category, "category is required")
	v.Enum("type", payload.Type, []string{finance.TypeIncome, finance.TypeExpense, finance.TypeTransfer}, "must be income, expense or transfer")
	v.Required("type", payload.Type, "type is required")
	v.Positive("amount", payload.Amount, "must be greater than zero")
	var date time.Time
	if payload.Date != "" {
		date, _ = v.Date("date", payload.Date)
	}
	if v.Reject(w, requestID) {
		return
	}

	tx, err := h.Finance.Record(r.Context(), actor.UserID, finance.RecordInput{
		Type:        strings.ToLower(strings.TrimSpace(payload.Type)),
		Amount:      payload.Amount,
		Category:    strings.TrimSpace(payload.Category),
		Description: strings.TrimSpace(payload.Description),
		Date:        date,
		Reference:   strings.TrimSpace(payload.Reference),
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "transaction_failed", "failed to record transaction", requestID)
		return
	}

	if err := h.Audit.Record(r.Context(), actor.UserID, "finance.record", "transaction", tx.ID, tx.Reference, requestID, shared.ClientIP(r)); err != nil {
		slog.Warn("audit finance.record failed", "err", err)
	}
	api.Created(w, tx, requestID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	from, to, err := parsePeriod(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
		return
	}

	transactions, err := h.Finance.List(r.Context(), strings.ToLower(r.URL.Query().Get("type")), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "transactions_failed", "failed to list transactions", requestID)
		return
	}
	api.Success(w, transactions, requestID)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	from, to, err := parsePeriod(r)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
		return
	}

	report, err := h.Finance.BuildReport(r.Context(), from, to)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build report", requestID)
		return
	}
	api.Success(w, report, requestID)
}

func parsePeriod(r *http.Request) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			return nil, nil, errors.New("from must be a valid date")
		}
		from = &parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := shared.ParseDate(raw)
		if err != nil {
			return nil, nil, errors.New("to must be a valid date")
		}
		to = &parsed
	}
	return from, to, nil
}
