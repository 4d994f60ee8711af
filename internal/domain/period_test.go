package domain

import (
	"errors"
	"testing"
	"time"
)

func TestPeriodOf(t *testing.T) {
	p := PeriodOf(time.Date(2024, time.February, 29, 23, 59, 0, 0, time.UTC))

	if p != (Period{Year: 2024, Month: 2}) {
		t.Fatalf("unexpected period %v", p)
	}
	if p.String() != "2024-02" {
		t.Errorf("expected 2024-02, got %s", p)
	}
}

func TestPeriod_Validate(t *testing.T) {
	tests := []struct {
		name    string
		period  Period
		wantErr bool
	}{
		{name: "january", period: Period{Year: 2024, Month: 1}},
		{name: "december", period: Period{Year: 2024, Month: 12}},
		{name: "month zero", period: Period{Year: 2024, Month: 0}, wantErr: true},
		{name: "month thirteen", period: Period{Year: 2024, Month: 13}, wantErr: true},
		{name: "year zero", period: Period{Year: 0, Month: 5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.period.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidPeriod) {
				t.Fatalf("expected ErrInvalidPeriod, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestPeriod_After(t *testing.T) {
	march := Period{Year: 2024, Month: 3}

	if !(Period{Year: 2024, Month: 4}).After(march) {
		t.Error("april should be after march")
	}
	if !(Period{Year: 2025, Month: 1}).After(march) {
		t.Error("next year should be after march")
	}
	if march.After(march) {
		t.Error("a period is not after itself")
	}
	if (Period{Year: 2023, Month: 12}).After(march) {
		t.Error("previous december is not after march")
	}
}

func TestClosedPeriod_Period(t *testing.T) {
	cp := &ClosedPeriod{AccountID: "chk", Year: 2024, Month: 3}

	if cp.Period() != (Period{Year: 2024, Month: 3}) {
		t.Errorf("unexpected period %v", cp.Period())
	}
}
