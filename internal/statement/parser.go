// Package statement parses bank statement CSV exports into rows ready for
// the reconciliation pipeline.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"tally/internal/core"
)

// Record is one parsed statement row. Amounts are absolute values; sign
// classification happens downstream.
type Record struct {
	Description string
	Date        core.Date
	Amount      core.Money
}

// dateLayouts covers the formats the supported banks export.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02.01.2006",
}

// ParseCSV reads a statement export. The first line must be a header naming
// (at least) description, date and amount columns; matching is
// case-insensitive and ignores surrounding whitespace. Extra columns are
// ignored. A malformed data row aborts the parse with an error naming the
// row.
func ParseCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty statement", core.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", core.ErrValidation, err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", core.ErrValidation, line, err)
		}

		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: statement has no data rows", core.ErrValidation)
	}
	return records, nil
}

type columnMap struct {
	description int
	date        int
	amount      int
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{description: -1, date: -1, amount: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "description", "details", "memo":
			cols.description = i
		case "date", "transaction date", "booking date":
			cols.date = i
		case "amount", "value":
			cols.amount = i
		}
	}
	if cols.description < 0 || cols.date < 0 || cols.amount < 0 {
		return columnMap{}, fmt.Errorf("%w: header must name description, date and amount columns", core.ErrValidation)
	}
	return cols, nil
}

func parseRow(row []string, cols columnMap) (Record, error) {
	max := cols.description
	if cols.date > max {
		max = cols.date
	}
	if cols.amount > max {
		max = cols.amount
	}
	if len(row) <= max {
		return Record{}, fmt.Errorf("%w: too few columns", core.ErrValidation)
	}

	desc := strings.TrimSpace(row[cols.description])
	if desc == "" {
		return Record{}, core.ErrEmptyDescription
	}

	date, err := parseDate(row[cols.date])
	if err != nil {
		return Record{}, err
	}

	// Leading minus means an outflow in most exports; the magnitude is what
	// carries forward, classification reapplies the sign.
	raw := strings.TrimSpace(row[cols.amount])
	raw = strings.TrimPrefix(raw, "-")
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		return Record{}, err
	}

	return Record{
		Description: desc,
		Date:        date,
		Amount:      core.Money{Cents: cents},
	}, nil
}

func parseDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, core.ErrInvalidDate
}
