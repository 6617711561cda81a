package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Course 1: Subject Name",
		Headers: []string{"Component", "Max"},
		Rows: []map[string]string{
			{"Component": "Quiz 1", "Max": "10"},
			{"Component": "Midsem, part A", "Max": "40"},
		},
		Summary: []SummaryLine{{Label: "Percentage", Value: "80.0"}},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("Component,Max\nQuiz 1,10\n\"Midsem, part A\",40\n")))
	assert.True(t, bytes.HasSuffix(out, []byte("Percentage,80.0\n")))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}
