package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/periodledger/internal/adapter/http/dto"
	"github.com/iho/periodledger/internal/domain"
)

type transactionServiceStub struct {
	applyFn func(ctx context.Context, req domain.TransactionRequest) (*domain.LedgerEntry, error)
}

func (s *transactionServiceStub) ClassifyAndApply(ctx context.Context, req domain.TransactionRequest) (*domain.LedgerEntry, error) {
	return s.applyFn(ctx, req)
}

func (s *transactionServiceStub) Classify(category string) domain.TransactionClass {
	return domain.DefaultClassifier().Classify(category)
}

func (s *transactionServiceStub) Suggest(input string) []string {
	return domain.DefaultClassifier().Suggest(input)
}

func TestTransactionHandler_Apply_Success(t *testing.T) {
	var captured domain.TransactionRequest
	handler := NewTransactionHandler(&transactionServiceStub{
		applyFn: func(ctx context.Context, req domain.TransactionRequest) (*domain.LedgerEntry, error) {
			captured = req
			return &domain.LedgerEntry{
				ID:    "e1",
				Date:  req.Date,
				Class: domain.ClassBill,
				Postings: []domain.Posting{
					{Virtual: domain.VirtualExpense, Side: domain.SideDebit, Amount: req.Amount},
					{AccountID: req.SourceAccountID, Side: domain.SideCredit, Amount: req.Amount},
				},
			}, nil
		},
	})

	body, _ := json.Marshal(dto.TransactionRequest{
		SourceAccountID: "chk",
		Amount:          "150",
		Direction:       "debit",
		Category:        "Electric Bill",
		Date:            "2024-03-15",
	})

	rec := httptest.NewRecorder()
	handler.Apply(rec, httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if captured.SourceAccountID != "chk" || !captured.Amount.Equal(decimal.NewFromInt(150)) ||
		!captured.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected request passed to ledger: %+v", captured)
	}

	var resp dto.EntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "e1" || resp.Class != "bill" || resp.Amount != "150" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTransactionHandler_Apply_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"malformed json", "{", nil, http.StatusBadRequest},
		{"bad amount", `{"source_account_id":"chk","amount":"x","direction":"debit"}`, nil, http.StatusBadRequest},
		{"bad direction", `{"source_account_id":"chk","amount":"1","direction":"up"}`, nil, http.StatusBadRequest},
		{
			"missing link",
			`{"source_account_id":"chk","amount":"1","direction":"debit","category":"savings"}`,
			&domain.BuildError{Class: domain.ClassSavings, Err: domain.ErrMissingLink},
			http.StatusUnprocessableEntity,
		},
		{
			"closed period",
			`{"source_account_id":"chk","amount":"1","direction":"debit","date":"2024-02-10"}`,
			&domain.PeriodClosedError{AccountID: "chk", Year: 2024, Month: 2},
			http.StatusConflict,
		},
		{
			"unknown account",
			`{"source_account_id":"ghost","amount":"1","direction":"credit"}`,
			domain.ErrAccountNotFound,
			http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewTransactionHandler(&transactionServiceStub{
				applyFn: func(ctx context.Context, req domain.TransactionRequest) (*domain.LedgerEntry, error) {
					if tt.err == nil {
						t.Fatal("ledger should not be called")
					}
					return nil, tt.err
				},
			})

			rec := httptest.NewRecorder()
			handler.Apply(rec, httptest.NewRequest(http.MethodPost, "/transactions", bytes.NewBufferString(tt.body)))

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTransactionHandler_Classify(t *testing.T) {
	handler := NewTransactionHandler(&transactionServiceStub{})

	rec := httptest.NewRecorder()
	handler.Classify(rec, httptest.NewRequest(http.MethodGet, "/transactions/classify?category=Car+Loan", nil))

	var resp dto.ClassifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if rec.Code != http.StatusOK || resp.Class != "loan" || resp.Category != "Car Loan" {
		t.Fatalf("unexpected response %d %+v", rec.Code, resp)
	}
	if len(resp.Suggestions) == 0 {
		t.Fatalf("expected suggestions for %q", resp.Category)
	}

	rec = httptest.NewRecorder()
	handler.Classify(rec, httptest.NewRequest(http.MethodGet, "/transactions/classify", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without category, got %d", rec.Code)
	}
}
