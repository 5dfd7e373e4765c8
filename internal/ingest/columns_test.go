package ingest_test

import (
	"errors"
	"testing"

	"github.com/financetrack/financetrack-go/internal/domain"
	"github.com/financetrack/financetrack-go/internal/ingest"
)

func TestResolveColumns_StandardHeaders(t *testing.T) {
	cols, err := ingest.ResolveColumns([]string{"Date", "Description", "Amount"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cols.Date != 0 || cols.Description != 1 || cols.Amount != 2 {
		t.Errorf("unexpected column mapping: %+v", cols)
	}
}

func TestResolveColumns_Synonyms(t *testing.T) {
	cols, err := ingest.ResolveColumns([]string{"Posted Date", "Memo", "Transaction Amount"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cols.Date != 0 || cols.Description != 1 || cols.Amount != 2 {
		t.Errorf("unexpected column mapping: %+v", cols)
	}
}

func TestResolveColumns_CaseInsensitiveAndReordered(t *testing.T) {
	cols, err := ingest.ResolveColumns([]string{"AMOUNT", "date", "DeScRiPtIoN"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cols.Amount != 0 || cols.Date != 1 || cols.Description != 2 {
		t.Errorf("unexpected column mapping: %+v", cols)
	}
}

func TestResolveColumns_IgnoresExtraColumns(t *testing.T) {
	cols, err := ingest.ResolveColumns([]string{"Check Number", "Date", "Balance", "Description", "Amount"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cols.Date != 1 || cols.Description != 3 || cols.Amount != 4 {
		t.Errorf("unexpected column mapping: %+v", cols)
	}
}

func TestResolveColumns_MissingAmount(t *testing.T) {
	_, err := ingest.ResolveColumns([]string{"Date", "Description", "Balance"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var schemaErr *domain.ErrSchema
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected ErrSchema, got %T", err)
	}
	if schemaErr.MissingRole != "amount" {
		t.Errorf("expected missing role 'amount', got %q", schemaErr.MissingRole)
	}
}

func TestResolveColumns_TransactionHeaderIsDescriptionNotAmount(t *testing.T) {
	// "Transaction" is a description synonym, it must not be claimed again by
	// the amount role.
	cols, err := ingest.ResolveColumns([]string{"Date", "Transaction", "Amount"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cols.Description != 1 || cols.Amount != 2 {
		t.Errorf("unexpected column mapping: %+v", cols)
	}
}
