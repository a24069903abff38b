package workflow

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCsvBytes_EmptyGetsPlaceholderBody(t *testing.T) {
	data := csvBytes([]string{"Name", "Mobile"}, nil)

	assert.Equal(t, "No records found", string(data))
}

func TestCsvBytes_HeaderThenRows(t *testing.T) {
	data := csvBytes([]string{"Name", "Mobile"}, [][]string{{"RAKESH", "9876543210"}})

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name,Mobile", lines[0])
	assert.Equal(t, "RAKESH,9876543210", lines[1])
}

func TestCsvBytes_QuotesCommas(t *testing.T) {
	data := csvBytes([]string{"Description"}, [][]string{{"TYRE, TUBE AND FITTING"}})

	assert.Contains(t, string(data), `"TYRE, TUBE AND FITTING"`)
}

func TestWriteZip(t *testing.T) {
	files := []ExportFile{
		{Name: "Master.csv", Data: []byte("a,b\n1,2\n")},
		{Name: "Licenses.csv", Data: []byte("x\n")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteZip(&buf, files))

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, r.File, 2)
	assert.Equal(t, "Master.csv", r.File[0].Name)
	assert.Equal(t, "Licenses.csv", r.File[1].Name)
}
