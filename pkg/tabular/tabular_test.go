package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSVNormalizesHeaders(t *testing.T) {
	input := " Product , SKU ,Quantity\nSugar 1kg,SUG-001,5\n,,\n"
	table, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"product", "sku", "quantity"}, table.Headers)
	require.Len(t, table.Rows, 1, "blank rows must be dropped")
	assert.Equal(t, "Sugar 1kg", table.Rows[0].Get("product"))
	assert.Equal(t, "SUG-001", table.Rows[0].Get("sku"))
}

func TestRowInt(t *testing.T) {
	row := Row{"quantity": " 12 ", "total_quantity": "abc", "notes": ""}

	v, ok, err := row.Int("quantity")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12, v)

	_, ok, err = row.Int("total_quantity")
	assert.True(t, ok)
	assert.Error(t, err)

	_, ok, err = row.Int("notes")
	require.NoError(t, err)
	assert.False(t, ok, "blank cell reports not-present")
}

func TestParseCSVRequiresHeader(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseXLSXRoundTrip(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Product", "SKU", "Main Counter"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Maize Flour", "MZF-002", "7"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := Parse(&buf, "restock.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"product", "sku", "main counter"}, table.Headers)
	require.Len(t, table.Rows, 1)

	qty, ok, err := table.Rows[0].Int("main counter")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, qty)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"product", "sku"}, [][]string{{"Sugar 1kg", "SUG-001"}})
	require.NoError(t, err)
	assert.Equal(t, "product,sku\nSugar 1kg,SUG-001\n", buf.String())
}
