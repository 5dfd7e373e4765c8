package ingest

import (
	"encoding/csv"
	"strings"

	"go.uber.org/zap"

	"github.com/financetrack/financetrack-go/internal/domain"
)

// maxSampleErrors bounds the row errors embedded in ErrNoValidRows.
const maxSampleErrors = 5

// Importer turns raw CSV bytes into normalized transactions.
type Importer struct {
	logger *zap.Logger
}

// NewImporter creates an importer.
func NewImporter(logger *zap.Logger) *Importer {
	return &Importer{logger: logger}
}

// Import decodes and parses a whole CSV export for one account. It returns
// the normalized records plus the non-fatal row errors, in file order.
//
// Fatal conditions (error != nil): undecodable bytes, structurally broken
// CSV, zero data rows, unresolvable required column, or zero rows surviving
// normalization. A single malformed transaction must not block an entire
// statement import, so everything else is a row error.
func (im *Importer) Import(raw []byte, accountID string) ([]domain.NormalizedTransaction, []domain.RowError, error) {
	content, err := DecodeBytes(raw)
	if err != nil {
		return nil, nil, err
	}

	cr := csv.NewReader(strings.NewReader(content))
	cr.FieldsPerRecord = -1 // banks pad rows inconsistently
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, &domain.ErrMalformedCSV{Detail: err.Error()}
	}
	if len(records) <= 1 {
		return nil, nil, &domain.ErrEmptyFile{}
	}

	cols, err := ResolveColumns(records[0])
	if err != nil {
		return nil, nil, err
	}

	var (
		txns      []domain.NormalizedTransaction
		rowErrors []domain.RowError
	)
	for i, row := range records[1:] {
		txn, rowErr := NormalizeRow(accountID, row, cols, i+1)
		if rowErr != nil {
			rowErrors = append(rowErrors, *rowErr)
			continue
		}
		if txn == nil {
			continue // blank row
		}
		txns = append(txns, *txn)
	}

	if len(txns) == 0 {
		samples := rowErrors
		remaining := 0
		if len(samples) > maxSampleErrors {
			remaining = len(samples) - maxSampleErrors
			samples = samples[:maxSampleErrors]
		}
		return nil, nil, &domain.ErrNoValidRows{Samples: samples, Remaining: remaining}
	}

	im.logger.Debug("csv import parsed",
		zap.String("account_id", accountID),
		zap.Int("rows", len(records)-1),
		zap.Int("records", len(txns)),
		zap.Int("row_errors", len(rowErrors)),
	)
	if len(rowErrors) > 0 {
		im.logger.Warn("csv import skipped rows",
			zap.String("account_id", accountID),
			zap.Int("row_errors", len(rowErrors)),
		)
	}

	return txns, rowErrors, nil
}
