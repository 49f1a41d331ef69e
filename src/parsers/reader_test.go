package parsers

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, DetectFormat("history.csv"))
	assert.Equal(t, FormatXLSX, DetectFormat("History.XLSX"))
	assert.Equal(t, FormatXML, DetectFormat("flex.xml"))
	assert.Equal(t, FormatCSV, DetectFormat("export"))
}

func TestReadRows_CSVWithBOM(t *testing.T) {
	data := "\uFEFFRun Date, Action ,Symbol\n03/15/2023,YOU BOUGHT,AAPL\n,,\n03/16/2023,YOU SOLD,\"MSFT\"\n"
	headers, rows, err := ReadRows(strings.NewReader(data), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, []string{"Run Date", "Action", "Symbol"}, headers)
	require.Len(t, rows, 2)
	assert.Equal(t, "03/15/2023", rows[0].Value("Run Date"))
	assert.Equal(t, "MSFT", rows[1].Value("Symbol"))
	assert.Equal(t, 3, rows[1].Number)
}

func TestReadRows_RaggedAndUnprintable(t *testing.T) {
	data := "Date,Action,Price\n2024-01-02,Buy\x00\n2024-01-03,Sell,10,extra\n"
	_, rows, err := ReadRows(strings.NewReader(data), FormatCSV)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Buy", rows[0].Value("Action"))
	assert.Equal(t, "", rows[0].Value("Price"))
	assert.Equal(t, "10", rows[1].Value("Price"))
}

func TestReadRows_Empty(t *testing.T) {
	_, _, err := ReadRows(strings.NewReader(""), FormatCSV)
	assert.ErrorIs(t, err, ErrEmptyHeader)

	_, _, err = ReadRows(strings.NewReader(" , \n1,2\n"), FormatCSV)
	assert.ErrorIs(t, err, ErrEmptyHeader)
}

func TestReadRows_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, record := range [][]string{
		{"Date", "Action", "Symbol", "Quantity", "Price"},
		{"03/15/2023", "Buy", "AAPL", "10", "150.00"},
	} {
		row := sheet.AddRow()
		for _, v := range record {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	headers, rows, err := ReadRows(&buf, FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Action", "Symbol", "Quantity", "Price"}, headers)
	require.Len(t, rows, 1)
	assert.Equal(t, "AAPL", rows[0].Value("Symbol"))
}

func TestReadRows_XLSXInvalid(t *testing.T) {
	_, _, err := ReadRows(strings.NewReader("not a zip"), FormatXLSX)
	assert.Error(t, err)
}
