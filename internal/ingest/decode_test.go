package ingest_test

import (
	"testing"

	"github.com/financetrack/financetrack-go/internal/ingest"
)

func TestDecodeBytes_PlainUTF8(t *testing.T) {
	got, err := ingest.DecodeBytes([]byte("Date,Description,Amount\n"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "Date,Description,Amount\n" {
		t.Errorf("unexpected content: %q", got)
	}
}

func TestDecodeBytes_UTF8WithBOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Date,Amount\n")...)

	got, err := ingest.DecodeBytes(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "Date,Amount\n" {
		t.Errorf("BOM should be stripped, got %q", got)
	}
}

func TestDecodeBytes_Latin1(t *testing.T) {
	// "Café" with a Latin-1 encoded é (0xE9), invalid as UTF-8.
	raw := []byte{'C', 'a', 'f', 0xE9}

	got, err := ingest.DecodeBytes(raw)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "Café" {
		t.Errorf("expected 'Café', got %q", got)
	}
}
