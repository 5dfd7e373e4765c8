package ingest

import (
	"strings"

	"github.com/financetrack/financetrack-go/internal/domain"
)

// Role is a semantic column role required (or recognized) in a bank export.
type Role string

const (
	RoleDate        Role = "date"
	RoleDescription Role = "description"
	RoleAmount      Role = "amount"
)

// roleSynonyms maps each role to the header names banks use for it, in
// match priority order. Configuration, not logic: extending support for a
// new bank export means adding a synonym here, nothing else.
var roleSynonyms = []struct {
	role     Role
	headers  []string
	required bool
}{
	{RoleDate, []string{"date", "transaction date", "posted date", "date posted"}, true},
	{RoleDescription, []string{"description", "memo", "details", "transaction", "payee", "merchant"}, true},
	{RoleAmount, []string{"amount", "transaction amount", "debit", "credit"}, true},
}

// Columns holds the resolved index of each required role in the header row.
type Columns struct {
	Date        int
	Description int
	Amount      int
}

// foldHeader normalizes a header for comparison: lowercase, trimmed.
func foldHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

// ResolveColumns maps the file's headers to the three required roles.
// Matching is case-insensitive and order-independent; unrecognized columns
// (Balance, Check Number, ...) are ignored. The first header matching a
// role's synonym list claims that role.
func ResolveColumns(headers []string) (Columns, error) {
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = foldHeader(h)
	}

	cols := Columns{Date: -1, Description: -1, Amount: -1}
	for _, rs := range roleSynonyms {
		idx := -1
	scan:
		for _, syn := range rs.headers {
			for i, h := range folded {
				if h == syn && !claimed(cols, i) {
					idx = i
					break scan
				}
			}
		}
		if idx < 0 && rs.required {
			return Columns{}, &domain.ErrSchema{
				MissingRole: string(rs.role),
				Headers:     headers,
			}
		}
		switch rs.role {
		case RoleDate:
			cols.Date = idx
		case RoleDescription:
			cols.Description = idx
		case RoleAmount:
			cols.Amount = idx
		}
	}
	return cols, nil
}

func claimed(cols Columns, i int) bool {
	return cols.Date == i || cols.Description == i || cols.Amount == i
}
