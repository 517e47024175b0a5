package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "CS101 Results",
		Headers: []string{"Student", "Total", "Grade"},
		Rows: [][]string{
			{"student001", "190", "A"},
			{"student002", "204", "A+"},
		},
	}
}

func TestCSVRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Student,Total,Grade\nstudent001,190,A\nstudent002,204,A+\n", string(out))
}

func TestRenderRejectsRaggedRows(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, []string{"only-one"})
	for _, format := range []Format{FormatCSV, FormatPDF, FormatXLSX} {
		r, err := ForFormat(format)
		require.NoError(t, err)
		_, err = r.Render(data)
		assert.Error(t, err, format)
	}
}

func TestPDFRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXRenderRoundTrip(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows("CS101 Results")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Student", "Total", "Grade"}, rows[0])
	assert.Equal(t, []string{"student002", "204", "A+"}, rows[2])
}

func TestForFormatUnknown(t *testing.T) {
	_, err := ForFormat("docx")
	assert.Error(t, err)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Attendance 202401", sheetName("Attendance: 2024/01"))
	assert.Equal(t, defaultSheet, sheetName("[]"))
	assert.Len(t, []rune(sheetName("a very long title that exceeds the excel limit")), 31)
}
