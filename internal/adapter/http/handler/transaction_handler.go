package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/iho/periodledger/internal/adapter/http/dto"
	"github.com/iho/periodledger/internal/domain"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	ClassifyAndApply(ctx context.Context, req domain.TransactionRequest) (*domain.LedgerEntry, error)
	Classify(category string) domain.TransactionClass
	Suggest(input string) []string
}

// TransactionHandler accepts raw transactions.
type TransactionHandler struct {
	ledgerUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerUC TransactionService) *TransactionHandler {
	return &TransactionHandler{ledgerUC: ledgerUC}
}

// Apply classifies a transaction, builds its entry and posts it.
func (h *TransactionHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txReq, err := req.ToDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction", err.Error())
		return
	}

	entry, err := h.ledgerUC.ClassifyAndApply(r.Context(), txReq)
	if err != nil {
		writeDomainError(w, "transaction rejected", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Classify reports the class a category maps to, plus category suggestions.
func (h *TransactionHandler) Classify(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		writeError(w, http.StatusBadRequest, "missing 'category' parameter", "")
		return
	}

	suggestions := h.ledgerUC.Suggest(category)
	if suggestions == nil {
		suggestions = []string{}
	}

	writeJSON(w, http.StatusOK, dto.ClassifyResponse{
		Category:    category,
		Class:       string(h.ledgerUC.Classify(category)),
		Suggestions: suggestions,
	})
}
