package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/periodledger/internal/adapter/http/dto"
	"github.com/iho/periodledger/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	Reconcile(ctx context.Context, input usecase.ReconcileInput) (*usecase.ReconciliationReport, error)
	VerifyAccount(ctx context.Context, accountID string) (*usecase.AccountCheck, error)
}

// ReconciliationHandler matches statements and verifies balances.
type ReconciliationHandler struct {
	reconUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC}
}

// Reconcile matches a posted statement against the account's entries.
func (h *ReconciliationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req dto.ReconcileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid statement", err.Error())
		return
	}

	report, err := h.reconUC.Reconcile(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to reconcile", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconcileFromReport(report))
}

// Verify recomputes an account's balance from its posted entries.
func (h *ReconciliationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	check, err := h.reconUC.VerifyAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to verify account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountCheckFromUseCase(check))
}
