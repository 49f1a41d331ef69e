package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/parsers/ibkr"
	"github.com/username/tradenorm/src/security/validation"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXML  Format = "xml" // IB Flex Query
)

// DetectFormat picks the row source from a file name. Unknown extensions read as CSV.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return FormatXLSX
	case ".xml":
		return FormatXML
	default:
		return FormatCSV
	}
}

// ReadRows reads a whole export into header-keyed rows. Blank rows are dropped,
// headers and cells are trimmed and unprintable runes are removed.
func ReadRows(r io.Reader, format Format) ([]string, []models.RawRow, error) {
	var records [][]string
	var err error
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r)
	case FormatXML:
		return ibkr.ReadFlex(r)
	default:
		records, err = readCSV(r)
	}
	if err != nil {
		return nil, nil, err
	}
	return toRows(records)
}

func toRows(records [][]string) ([]string, []models.RawRow, error) {
	if len(records) == 0 {
		return nil, nil, ErrEmptyHeader
	}
	headers := make([]string, len(records[0]))
	nonBlank := false
	for i, h := range records[0] {
		headers[i] = sanitizeCell(h)
		if headers[i] != "" {
			nonBlank = true
		}
	}
	if !nonBlank {
		return nil, nil, ErrEmptyHeader
	}

	rows := make([]models.RawRow, 0, len(records)-1)
	for i, record := range records[1:] {
		for j := range record {
			record[j] = sanitizeCell(record[j])
		}
		row := models.NewRawRow(i+1, headers, record)
		if row.IsBlank() {
			continue
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	// Exports from Excel carry a UTF-8 BOM (sometimes UTF-16); decode it away.
	decoded := transform.NewReader(r, xunicode.BOMOverride(xunicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: read rows: %w", err)
	}
	return records, nil
}

// readXLSX reads the first sheet of an in-memory workbook.
func readXLSX(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: read upload")
	}
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}
	if len(f.Sheets) == 0 {
		return nil, ErrEmptyHeader
	}

	var records [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
		}
		records = append(records, cells)
	}
	return records, nil
}

func sanitizeCell(s string) string {
	return strings.TrimSpace(validation.StripUnprintable(s))
}
