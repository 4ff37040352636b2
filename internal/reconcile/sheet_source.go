package reconcile

import (
	"context"
	"fmt"

	"bottletrack/internal/sheets"
)

// SheetRowSource adapts a Google Sheet to the RowSource interface. Column A
// holds the product name, column B the strength, column C the stock quantity.
type SheetRowSource struct {
	service   *sheets.Service
	sheetName string
}

// NewSheetRowSource creates a row source over one sheet tab.
func NewSheetRowSource(service *sheets.Service, sheetName string) *SheetRowSource {
	return &SheetRowSource{service: service, sheetName: sheetName}
}

// ReadRows reads columns A:C of the whole tab.
func (s *SheetRowSource) ReadRows(ctx context.Context) ([]Row, error) {
	const op = "ReadRows"

	values, err := s.service.ReadRange(ctx, fmt.Sprintf("%s!A:C", s.sheetName))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := make([]Row, 0, len(values))
	for i, cells := range values {
		row := Row{Position: i + 1}
		if len(cells) > 0 {
			row.Name = cellString(cells[0])
		}
		if len(cells) > 1 {
			row.Strength = cellString(cells[1])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCounts writes each count into column C of its row in one batch call.
func (s *SheetRowSource) WriteCounts(ctx context.Context, updates []CountUpdate) error {
	const op = "WriteCounts"

	batch := make([]sheets.ValueUpdate, 0, len(updates))
	for _, u := range updates {
		batch = append(batch, sheets.ValueUpdate{
			Range:  fmt.Sprintf("%s!C%d", s.sheetName, u.Position),
			Values: [][]interface{}{{u.Count}},
		})
	}

	if err := s.service.BatchWrite(ctx, batch); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func cellString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
