// Package sheet reads spreadsheet uploads into rows of text cells.
package sheet

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
)

// Workbook is every sheet of an upload in workbook order.
type Workbook struct {
	Names []string
	Rows  map[string][][]string
}

// First returns the rows of the first sheet.
func (w *Workbook) First() [][]string {
	if len(w.Names) == 0 {
		return nil
	}
	return w.Rows[w.Names[0]]
}

// Read parses an xlsx stream. Cell values are the formatted text excelize
// renders. Numeric cells are normalised by NormalizeCell; text cells are only
// trimmed, so an identifier such as "1E5" stays as typed.
func Read(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrMalformedRecord, http.StatusBadRequest, "reading spreadsheet: %v", err)
	}
	defer f.Close()

	wb := &Workbook{Rows: make(map[string][][]string)}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrMalformedRecord, http.StatusBadRequest, "reading sheet %q: %v", name, err)
		}
		for r, row := range rows {
			for c, cell := range row {
				if row[c], err = normalize(f, name, r, c, cell); err != nil {
					return nil, apperrors.Newf(apperrors.ErrMalformedRecord, http.StatusBadRequest, "reading sheet %q: %v", name, err)
				}
			}
		}
		wb.Names = append(wb.Names, name)
		wb.Rows[name] = rows
	}
	return wb, nil
}

// ReadFirst parses r and returns the rows of its first sheet.
func ReadFirst(r io.Reader) ([][]string, error) {
	wb, err := Read(r)
	if err != nil {
		return nil, err
	}
	rows := wb.First()
	if len(rows) == 0 {
		return nil, apperrors.New(apperrors.ErrMalformedRecord, http.StatusBadRequest, "spreadsheet has no rows")
	}
	return rows, nil
}

func normalize(f *excelize.File, sheet string, row, col int, value string) (string, error) {
	if value == "" {
		return value, nil
	}
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return "", err
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return "", err
	}
	switch typ {
	// numbers, including formula results, are stored without a type
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		return NormalizeCell(value), nil
	}
	return strings.TrimSpace(value), nil
}

// NormalizeCell expands numbers written in scientific notation to plain
// decimals and drops a trailing ".0". Other text is returned trimmed.
func NormalizeCell(cell string) string {
	s := strings.TrimSpace(cell)
	if strings.ContainsAny(s, "eE") && looksNumeric(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			s = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	if strings.HasSuffix(s, ".0") && looksNumeric(s) {
		s = strings.TrimSuffix(s, ".0")
	}
	return s
}

func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil && !strings.ContainsAny(s, "xXnN")
}

// String renders a summary used in logs.
func (w *Workbook) String() string {
	return fmt.Sprintf("Workbook(%d sheets)", len(w.Names))
}
