package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a parsed upload: one header row plus data rows, with header
// keys normalized (trimmed, lowercased) so import rules can address
// columns uniformly regardless of how the sheet was authored.
type Table struct {
	// Headers preserves column order after normalization.
	Headers []string
	Rows    []Row
}

// Row maps normalized header -> trimmed cell value.
type Row map[string]string

// Get returns the trimmed cell value for the normalized key.
func (r Row) Get(key string) string {
	return strings.TrimSpace(r[key])
}

// Has reports whether the cell exists and is non-blank.
func (r Row) Has(key string) bool {
	return r.Get(key) != ""
}

// Int parses the cell as an integer. ok is false when the cell is blank.
func (r Row) Int(key string) (value int, ok bool, err error) {
	raw := r.Get(key)
	if raw == "" {
		return 0, false, nil
	}
	v, convErr := strconv.Atoi(raw)
	if convErr != nil {
		return 0, true, fmt.Errorf("column %q: %q is not an integer", key, raw)
	}
	return v, true, nil
}

// NormalizeKey trims and lowercases a header cell.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Parse picks a parser from the filename extension. CSV is the default;
// .xlsx uploads go through excelize.
func Parse(r io.Reader, filename string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return ParseXLSX(r)
	}
	return ParseCSV(r)
}

// ParseCSV reads an entire CSV stream into a Table.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return fromRecords(records)
}

// ParseXLSX reads the first sheet of an XLSX stream into a Table.
func ParseXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return fromRecords(records)
}

func fromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}

	headers := make([]string, 0, len(records[0]))
	for _, h := range records[0] {
		headers = append(headers, NormalizeKey(h))
	}

	table := &Table{Headers: headers}
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		row := Row{}
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(record) {
				row[header] = strings.TrimSpace(record[i])
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// WriteCSV streams a header and rows to w.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
