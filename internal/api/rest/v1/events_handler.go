package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/Standard-Labs/real-intent/internal/domain/events"
)

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// EventsProvider serves event digests, from the cache or freshly generated
type EventsProvider interface {
	EventsForZip(ctx context.Context, zipCode string) (*events.EventsResponse, error)
	PDFForZip(ctx context.Context, zipCode string) ([]byte, error)
}

// EventsHandler defines the interface for handling local-event operations
type EventsHandler interface {
	GetEvents(ctx *gin.Context)
	GetEventsPDF(ctx *gin.Context)
}

type eventsHandler struct {
	service EventsProvider
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(service EventsProvider) EventsHandler {
	return &eventsHandler{service: service}
}

func (handler *eventsHandler) zipParam(ctx *gin.Context) (string, bool) {
	zipCode := ctx.Param("zip")
	if !zipPattern.MatchString(zipCode) {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Message: "zip must be a 5-digit zip code"})
		return "", false
	}
	return zipCode, true
}

func eventsStatus(err error) int {
	var notFound *events.NoEventsFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// GetEvents handles the GET request for a local-event digest
// @Summary Get the local-event digest for a zip code
// @Tags Events
// @Produce json
// @Param zip path string true "5-digit zip code"
// @Success 200 {object} EventsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /events/{zip} [get]
func (handler *eventsHandler) GetEvents(ctx *gin.Context) {
	zipCode, ok := handler.zipParam(ctx)
	if !ok {
		return
	}

	response, err := handler.service.EventsForZip(ctx, zipCode)
	if err != nil {
		ctx.JSON(eventsStatus(err), ErrorResponse{Message: fmt.Sprintf("error fetching events: %v", err)})
		return
	}

	ctx.JSON(http.StatusOK, NewEventsResponse(zipCode, response))
}

// GetEventsPDF handles the GET request for the digest rendered as a PDF
// @Summary Get the local-event digest for a zip code as a PDF flyer
// @Tags Events
// @Produce application/pdf
// @Param zip path string true "5-digit zip code"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /events/{zip}/pdf [get]
func (handler *eventsHandler) GetEventsPDF(ctx *gin.Context) {
	zipCode, ok := handler.zipParam(ctx)
	if !ok {
		return
	}

	pdf, err := handler.service.PDFForZip(ctx, zipCode)
	if err != nil {
		ctx.JSON(eventsStatus(err), ErrorResponse{Message: fmt.Sprintf("error rendering events: %v", err)})
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=events-%s.pdf", zipCode))
	ctx.Data(http.StatusOK, "application/pdf", pdf)
}
