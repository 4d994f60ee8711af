package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/periodledger/internal/adapter/http/dto"
	"github.com/iho/periodledger/internal/domain"
	"github.com/iho/periodledger/internal/usecase"
)

// PeriodService defines the behavior needed by PeriodHandler.
type PeriodService interface {
	Close(ctx context.Context, input usecase.CloseInput) (*domain.ClosedPeriod, error)
	IsClosed(ctx context.Context, accountID string, year, month int) (bool, error)
	ListClosed(ctx context.Context, accountID string) ([]*domain.ClosedPeriod, error)
}

// PeriodHandler handles month-end close requests.
type PeriodHandler struct {
	periodUC PeriodService
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(periodUC PeriodService) *PeriodHandler {
	return &PeriodHandler{periodUC: periodUC}
}

// Close closes one month for an account.
func (h *PeriodHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req dto.ClosePeriodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	closed, err := h.periodUC.Close(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "failed to close period", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ClosedPeriodFromDomain(closed))
}

// List returns an account's closed periods, newest first.
func (h *PeriodHandler) List(w http.ResponseWriter, r *http.Request) {
	periods, err := h.periodUC.ListClosed(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to list periods", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ClosedPeriodsFromDomain(periods))
}

// Status reports whether one month is closed for an account.
func (h *PeriodHandler) Status(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year", err.Error())
		return
	}

	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month", err.Error())
		return
	}

	closed, err := h.periodUC.IsClosed(r.Context(), accountID, year, month)
	if err != nil {
		writeDomainError(w, "failed to check period", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PeriodStatusResponse{
		AccountID: accountID,
		Year:      year,
		Month:     month,
		Closed:    closed,
	})
}
