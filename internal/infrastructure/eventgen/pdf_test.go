//go:build unit
// +build unit

package eventgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
)

func TestRenderPDF(t *testing.T) {
	link := "https://example.com/fall"
	response := &events.EventsResponse{
		Summary: "A lively week in the area.",
		Events: []events.Event{
			{Title: "Fall Festival", Date: "September 3, 2024", Description: "Food and music downtown.", Link: &link},
			{Title: "Farmers Market", Date: "September 5, 2024", Description: "Weekly market at the square."},
		},
	}

	pdf, err := RenderPDF(response)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
	assert.Greater(t, len(pdf), 1000)
}

func TestRenderPDFLongSummaryAndManyEvents(t *testing.T) {
	response := &events.EventsResponse{
		Summary: strings.Repeat("Plenty going on this week. ", 60),
	}
	for i := 0; i < 40; i++ {
		response.Events = append(response.Events, events.Event{
			Title:       strings.Repeat("Very Long Event Title ", 5),
			Date:        "September 3, 2024",
			Description: strings.Repeat("details ", 30),
		})
	}

	pdf, err := RenderPDF(response)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}
