package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/periodledger/internal/adapter/http/dto"
	"github.com/iho/periodledger/internal/domain"
	"github.com/iho/periodledger/internal/usecase"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetEntryLines(ctx context.Context, id string) ([]*domain.EntryLine, error)
	ListEntries(ctx context.Context, filter usecase.EntryFilter) ([]*domain.LedgerEntry, error)
	ReverseEntry(ctx context.Context, input usecase.ReverseEntryInput) (*domain.LedgerEntry, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	ledgerUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(ledgerUC EntryService) *EntryHandler {
	return &EntryHandler{ledgerUC: ledgerUC}
}

// Get returns an entry with its per-account balance effects.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := h.ledgerUC.GetEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get entry", err)
		return
	}

	lines, err := h.ledgerUC.GetEntryLines(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get entry lines", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryDetailResponse{
		EntryResponse: dto.EntryFromDomain(entry),
		Lines:         dto.EntryLinesFromDomain(lines),
	})
}

// Reverse posts the mirror image of an entry. The body is optional.
func (h *EntryHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	var req dto.ReverseEntryRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	reversal, err := h.ledgerUC.ReverseEntry(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to reverse entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(reversal))
}

// ListByAccount lists an account's entries, optionally within [from, to).
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	from, err := dto.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid 'from' parameter", err.Error())
		return
	}

	to, err := dto.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid 'to' parameter", err.Error())
		return
	}

	entries, err := h.ledgerUC.ListEntries(r.Context(), usecase.EntryFilter{
		AccountID: chi.URLParam(r, "id"),
		From:      from,
		To:        to,
		Limit:     parseIntQuery(r, "limit", 50),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListEntriesResponse{
		Entries: dto.EntriesFromDomain(entries),
		Total:   int64(len(entries)),
	})
}
