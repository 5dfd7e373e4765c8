package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/financetrack/financetrack-go/internal/domain"
)

// dateFormats is the fixed precedence list for date parsing. The order is a
// compatibility contract: MM/DD/YYYY is always tried before DD/MM/YYYY, so an
// ambiguous value like 03/04/2024 resolves the same way for every file.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
	"01-02-2006",
	"02-01-2006",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	"02/01/2006 15:04:05",
	"2006/01/02 15:04:05",
}

// maxDescriptionLen caps stored descriptions.
const maxDescriptionLen = 500

// missingSentinels are cell values that mean "no value" in common exports.
var missingSentinels = map[string]struct{}{
	"nan":  {},
	"null": {},
}

// NormalizeRow converts one raw CSV row into a NormalizedTransaction or a
// row-level error. An all-blank row yields (nil, nil) and is skipped
// silently. Pure function of its inputs.
func NormalizeRow(accountID string, row []string, cols Columns, rowNum int) (*domain.NormalizedTransaction, *domain.RowError) {
	if isBlankRow(row) {
		return nil, nil
	}

	dateStr := strings.TrimSpace(cell(row, cols.Date))
	date, ok := parseDate(dateStr)
	if !ok {
		return nil, &domain.RowError{
			Row:    rowNum,
			Reason: domain.ReasonDateParse,
			Detail: fmt.Sprintf("unable to parse date %q", dateStr),
		}
	}

	description := strings.TrimSpace(cell(row, cols.Description))
	if _, sentinel := missingSentinels[strings.ToLower(description)]; description == "" || sentinel {
		return nil, &domain.RowError{
			Row:    rowNum,
			Reason: domain.ReasonMissingField,
			Detail: "description is empty",
		}
	}
	if runes := []rune(description); len(runes) > maxDescriptionLen {
		description = string(runes[:maxDescriptionLen])
	}

	amountStr := cleanAmount(cell(row, cols.Amount))
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, &domain.RowError{
			Row:    rowNum,
			Reason: domain.ReasonAmountParse,
			Detail: fmt.Sprintf("unable to parse amount %q", strings.TrimSpace(cell(row, cols.Amount))),
		}
	}
	amount = amount.Round(2)

	return &domain.NormalizedTransaction{
		AccountID:   accountID,
		Date:        date,
		Description: description,
		Amount:      amount,
		Kind:        domain.KindForAmount(amount),
	}, nil
}

// cell returns the i-th field, tolerating short rows.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseDate tries each format in order; first match wins.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// cleanAmount strips currency symbols, thousands separators and spaces so
// the remainder parses as a plain decimal.
func cleanAmount(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', ',', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
