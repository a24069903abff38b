package workflow

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestValidImportType(t *testing.T) {
	for _, typ := range ImportTypes {
		assert.True(t, validImportType(typ), "%s should be accepted", typ)
	}
	assert.False(t, validImportType("users"))
	assert.False(t, validImportType(""))
}

func TestIsDocumentType(t *testing.T) {
	assert.True(t, isDocumentType("tax"))
	assert.True(t, isDocumentType("speed_gov"))
	assert.False(t, isDocumentType("citizens"))
	assert.False(t, isDocumentType("cash_flow"))
}

func TestCell_OutOfRangeIsEmpty(t *testing.T) {
	row := []string{"a", "b"}
	assert.Equal(t, "a", cell(row, 0))
	assert.Equal(t, "b", cell(row, 1))
	assert.Equal(t, "", cell(row, 2))
	assert.Equal(t, "", cell(nil, 0))
}

func TestReadSheetRows_DropsHeader(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Name", "Mobile"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"RAKESH", "9876543210"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"SUNITA", "9123456780"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := ReadSheetRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "RAKESH", rows[0][0])
	assert.Equal(t, "9123456780", rows[1][1])
}
