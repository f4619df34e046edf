package v1

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Standard-Labs/real-intent/internal/app"
	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/deliver"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/validate"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

const journalDeliverer = "rest-api"

// LeadHandler defines the interface for handling lead pull operations
type LeadHandler interface {
	PullLeads(ctx *gin.Context)
	ListJournal(ctx *gin.Context)
}

// leadHandler struct holds the intent client and the delivery journal
type leadHandler struct {
	client  app.IntentClient
	journal leads.Journal
	logger  logger.Logger
}

// NewLeadHandler creates a new LeadHandler. journal may be nil when no
// database is configured; journal-backed features then return errors.
func NewLeadHandler(client app.IntentClient, journal leads.Journal, logger logger.Logger) LeadHandler {
	return &leadHandler{
		client:  client,
		journal: journal,
		logger:  logger,
	}
}

// buildProcessor assembles the processor and validator chain for a request.
func (handler *leadHandler) buildProcessor(request *PullJobRequest) (leads.Processor, error) {
	cfg := request.Validators

	var add func(validator leads.Validator)
	var processor leads.Processor
	switch request.Mode {
	case "simple":
		simple := app.NewSimpleProcessor(handler.client, handler.logger).AddDefaultValidators()
		add = func(v leads.Validator) { simple.AddValidator(v, false) }
		processor = simple
	default:
		fill := app.NewFillProcessor(handler.client, handler.logger).AddDefaultValidators()
		add = func(v leads.Validator) { fill.AddValidator(v, false) }
		processor = fill
	}

	if cfg.RestrictZips {
		add(validate.NewZipCode(request.Zips))
	}
	if len(cfg.MD5Blacklist) > 0 {
		add(validate.NewMD5Blacklist(cfg.MD5Blacklist))
	}
	if cfg.MinSentences > 0 {
		add(validate.NumSentences{MinSentences: cfg.MinSentences, UseUnique: cfg.UseUnique})
	}
	if cfg.MinAge > 0 || cfg.MaxAge > 0 {
		maxAge := cfg.MaxAge
		if maxAge == 0 {
			maxAge = 150
		}
		add(validate.Age{MinAge: cfg.MinAge, MaxAge: maxAge})
	}
	if len(cfg.Genders) > 0 {
		genders := make([]leads.Gender, len(cfg.Genders))
		for i, gender := range cfg.Genders {
			genders[i] = leads.Gender(gender)
		}
		add(validate.NewGender(genders...))
	}
	if len(cfg.ExcludeOccupations) > 0 {
		add(validate.NewRemoveOccupations(cfg.ExcludeOccupations...))
	}
	if cfg.NoRealEstateAgents {
		add(validate.NewNoRealEstateAgent())
	}
	if cfg.MidIncome {
		add(validate.NewMidIncome())
	}
	if cfg.HighIncome {
		add(validate.NewHighIncome())
	}
	if cfg.MediumNetWorth {
		add(validate.NewMediumNetWorth())
	}
	if cfg.HighNetWorth {
		add(validate.NewHighNetWorth())
	}
	if cfg.NotRenter {
		add(validate.NotRenter{})
	}
	if cfg.NotApartment {
		add(validate.NotApartment{})
	}
	if cfg.SkipDelivered {
		if handler.journal == nil {
			return nil, fmt.Errorf("skip_delivered requires a configured delivery journal")
		}
		add(validate.NewNotYetDelivered(handler.journal, request.ClientID))
	}

	return processor, nil
}

// PullLeads handles the POST request to run an intent pull
// @Summary Run an intent pull
// @Description Create an intent job, hydrate PII for the resulting MD5s and apply the configured validators.
// @Tags Leads
// @Accept json
// @Produce json
// @Param requestBody body PullJobRequest true "Pull Job"
// @Success 200 {array} LeadResponse
// @Failure 400 {object} ErrorResponse
// @Router /jobs [post]
func (handler *leadHandler) PullLeads(ctx *gin.Context) {
	var request PullJobRequest

	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Message: fmt.Sprintf("invalid job data: %v", err)})
		return
	}

	if err := request.Validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Message: fmt.Sprintf("validation failed: %v", err)})
		return
	}
	job := request.Job()
	if err := job.Validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Message: fmt.Sprintf("validation failed: %v", err)})
		return
	}

	processor, err := handler.buildProcessor(&request)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	batch, err := processor.Process(ctx, job)
	if err != nil {
		ctx.JSON(http.StatusBadGateway, ErrorResponse{Message: fmt.Sprintf("error processing job: %v", err)})
		return
	}

	if handler.journal != nil && request.ClientID != "" {
		if err := handler.journal.Record(context.WithoutCancel(ctx), request.ClientID, journalDeliverer, batch); err != nil {
			handler.logger.Error("Failed to record deliveries: ", err)
		}
	}

	if request.Format == "csv" {
		formatter := &deliver.CSVFormatter{}
		csvBody, err := formatter.Format(batch)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, ErrorResponse{Message: fmt.Sprintf("error formatting csv: %v", err)})
			return
		}
		ctx.Data(http.StatusOK, "text/csv", []byte(csvBody))
		return
	}

	response := []LeadResponse{}
	for _, lead := range batch {
		response = append(response, NewLeadResponse(lead))
	}
	ctx.JSON(http.StatusOK, response)
}

// ListJournal handles the GET request to list delivery records
// @Summary List delivery records for a client
// @Tags Leads
// @Produce json
// @Param client_id query string true "Client ID"
// @Param limit query int false "Limit the number of results"
// @Success 200 {array} JournalEntryResponse
// @Failure 400 {object} ErrorResponse
// @Router /journal [get]
func (handler *leadHandler) ListJournal(ctx *gin.Context) {
	if handler.journal == nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Message: "no delivery journal is configured"})
		return
	}

	clientID := ctx.Query("client_id")
	if clientID == "" {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Message: "client_id is required"})
		return
	}

	limit := 0
	if rawLimit := ctx.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 0 {
			ctx.JSON(http.StatusBadRequest, ErrorResponse{Message: "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	entries, err := handler.journal.List(ctx, clientID, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Message: fmt.Sprintf("error listing journal: %v", err)})
		return
	}

	response := []JournalEntryResponse{}
	for _, entry := range entries {
		response = append(response, NewJournalEntryResponse(entry))
	}
	ctx.JSON(http.StatusOK, response)
}
