package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/Standard-Labs/real-intent/internal/app"
	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

// SetupRoutes sets up all the API routes for version 1.
func SetupRoutes(r *gin.Engine,
	client app.IntentClient,
	journal leads.Journal,
	eventsService EventsProvider,
	log logger.Logger) {

	v1 := r.Group(BasePath) // lookup in version file

	// Lead Routes
	leadHandler := NewLeadHandler(client, journal, log)
	v1.POST("/jobs", leadHandler.PullLeads)
	v1.GET("/journal", leadHandler.ListJournal)

	// Event Routes
	if eventsService != nil {
		eventsHandler := NewEventsHandler(eventsService)
		v1.GET("/events/:zip", eventsHandler.GetEvents)
		v1.GET("/events/:zip/pdf", eventsHandler.GetEventsPDF)
	}
}
