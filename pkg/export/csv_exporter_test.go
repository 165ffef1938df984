package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	data := Dataset{Rows: []Row{
		{Kind: "Assignment", Title: "Essay", Score: "80"},
		{Kind: "Quiz", Title: "Fractions", Score: "50"},
	}}

	payload, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "Kind,Title,Score\nAssignment,Essay,80\nQuiz,Fractions,50\n", string(payload))
}

func TestCSVExporterRenderEmpty(t *testing.T) {
	payload, err := NewCSVExporter().Render(Dataset{})
	require.NoError(t, err)
	assert.Equal(t, "Kind,Title,Score\n", string(payload))
}
