package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRender(t *testing.T) {
	exporter := NewCSVExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"Title", "Year"},
		Rows: []map[string]string{
			{"Title": "Cardiac Outcomes, Revisited", "Year": "2022"},
			{"Title": "Imaging Study", "Year": "2023"},
		},
	})
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "\xEF\xBB\xBF"), "expected UTF-8 BOM prefix")
	assert.Contains(t, text, "Title,Year")
	assert.Contains(t, text, `"Cardiac Outcomes, Revisited",2022`)
	assert.Contains(t, text, "Imaging Study,2023")
}

func TestCSVRenderMissingColumnLeftEmpty(t *testing.T) {
	exporter := NewCSVExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"Title", "DOI"},
		Rows:    []map[string]string{{"Title": "No DOI Here"}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(out), "No DOI Here,")
}

func TestCSVRenderNoHeaders(t *testing.T) {
	exporter := NewCSVExporter()
	_, err := exporter.Render(Dataset{})
	require.Error(t, err)
}

func TestPDFRender(t *testing.T) {
	exporter := NewPDFExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"Title", "Year"},
		Rows:    []map[string]string{{"Title": "Cardiac Outcomes", "Year": "2022"}},
	}, "Cardiology Publications")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}
