// Package app wires the intent client, validators and generators into the
// services the CLI and REST surfaces call.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Standard-Labs/real-intent/internal/domain/leads"
	"github.com/Standard-Labs/real-intent/internal/infrastructure/validate"
	"github.com/Standard-Labs/real-intent/internal/pkg/logger"
)

// IntentClient is the slice of the intent platform client the processors
// depend on.
type IntentClient interface {
	CreateAndWait(ctx context.Context, job leads.IABJob) (int, error)
	RetrieveMD5s(ctx context.Context, listQueueID int) ([]leads.IntentEvent, error)
	UniquifyMD5s(intentEvents []leads.IntentEvent) []leads.UniqueMD5
	PIIForUniqueMD5s(ctx context.Context, uniqueMD5s []leads.UniqueMD5) ([]leads.MD5WithPII, error)
}

// defaultValidators are applied by AddDefaultValidators. Leads without any
// contact method are useless to every deliverer.
func defaultValidators() []leads.Validator {
	return []leads.Validator{validate.Contactable{}}
}

// validatorSet holds the registered validators split into the required tier
// and the fallback tier. Fallback validators may be dropped by processors
// that cannot otherwise fill their quota.
type validatorSet struct {
	required []leads.Validator
	fallback []leads.Validator
}

// all returns the required validators followed by the fallback ones.
func (s *validatorSet) all() []leads.Validator {
	combined := make([]leads.Validator, 0, len(s.required)+len(s.fallback))
	combined = append(combined, s.required...)
	combined = append(combined, s.fallback...)
	return combined
}

func (s *validatorSet) add(validator leads.Validator, allowFallback bool) {
	if allowFallback {
		s.fallback = append(s.fallback, validator)
	} else {
		s.required = append(s.required, validator)
	}
}

func (s *validatorSet) clear() {
	s.required = nil
	s.fallback = nil
}

// describe summarizes the registered validators for the insight prompts.
func (s *validatorSet) describe() string {
	if len(s.required) == 0 && len(s.fallback) == 0 {
		return "No validations were applied."
	}

	names := func(validators []leads.Validator) string {
		parts := make([]string, len(validators))
		for i, validator := range validators {
			parts[i] = validator.Name()
		}
		return strings.Join(parts, ", ")
	}

	var sb strings.Builder
	if len(s.required) > 0 {
		sb.WriteString("Required validations: " + names(s.required) + ".")
	}
	if len(s.fallback) > 0 {
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("Fallback validations (dropped when the quota cannot be filled): " + names(s.fallback) + ".")
	}
	return sb.String()
}

// runValidators applies the validators in order, logging how many leads
// each one removed.
func runValidators(ctx context.Context, validators []leads.Validator, batch []leads.MD5WithPII, log logger.Logger) ([]leads.MD5WithPII, error) {
	for _, validator := range validators {
		before := len(batch)
		filtered, err := validator.Validate(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("validator %s failed: %w", validator.Name(), err)
		}
		log.Debug(validator.Name(), " removed ", before-len(filtered), " leads")
		batch = filtered
	}
	return batch, nil
}

// SimpleProcessor runs the job once and applies every registered validator
// in order. No quota counting.
type SimpleProcessor struct {
	client     IntentClient
	validators validatorSet
	logger     logger.Logger
}

// NewSimpleProcessor creates a SimpleProcessor on the given client.
func NewSimpleProcessor(client IntentClient, log logger.Logger) *SimpleProcessor {
	if log == nil {
		log = logger.Noop()
	}
	return &SimpleProcessor{client: client, logger: log}
}

// AddValidator registers a validator. Returns the processor for chaining.
func (p *SimpleProcessor) AddValidator(validator leads.Validator, allowFallback bool) *SimpleProcessor {
	p.validators.add(validator, allowFallback)
	return p
}

// AddDefaultValidators registers the default validators.
func (p *SimpleProcessor) AddDefaultValidators() *SimpleProcessor {
	for _, validator := range defaultValidators() {
		p.validators.add(validator, false)
	}
	return p
}

// ClearValidators removes all registered validators.
func (p *SimpleProcessor) ClearValidators() *SimpleProcessor {
	p.validators.clear()
	return p
}

// ValidationInfo summarizes the registered validators.
func (p *SimpleProcessor) ValidationInfo() string {
	return p.validators.describe()
}

// Process runs the job end to end and returns the validated leads.
func (p *SimpleProcessor) Process(ctx context.Context, job leads.IABJob) ([]leads.MD5WithPII, error) {
	listQueueID, err := p.client.CreateAndWait(ctx, job)
	if err != nil {
		return nil, err
	}

	intentEvents, err := p.client.RetrieveMD5s(ctx, listQueueID)
	if err != nil {
		return nil, err
	}

	uniqueMD5s := p.client.UniquifyMD5s(intentEvents)
	batch, err := p.client.PIIForUniqueMD5s(ctx, uniqueMD5s)
	if err != nil {
		return nil, err
	}

	return runValidators(ctx, p.validators.all(), batch, p.logger)
}

// FillProcessor over-pulls intent data and keeps hydrating PII in slices
// until the requested hem count is filled or the MD5 bank empties.
//
// It can return fewer leads than requested when the PII hit rate is too low
// or the platform returns too little intent data. On a shortfall the
// processor tries once more without the fallback validators, keeping the
// leads already validated and skipping people already included.
type FillProcessor struct {
	client     IntentClient
	validators validatorSet
	logger     logger.Logger

	// intentMultiplier scales the hem count of the initial intent pull.
	intentMultiplier float64
}

const defaultIntentMultiplier = 2.5

// NewFillProcessor creates a FillProcessor with the default multiplier.
func NewFillProcessor(client IntentClient, log logger.Logger) *FillProcessor {
	if log == nil {
		log = logger.Noop()
	}

	return &FillProcessor{
		client:           client,
		logger:           log,
		intentMultiplier: defaultIntentMultiplier,
	}
}

// WithIntentMultiplier overrides the intent oversampling multiplier.
func (p *FillProcessor) WithIntentMultiplier(multiplier float64) *FillProcessor {
	if multiplier > 0 {
		p.intentMultiplier = multiplier
	}
	return p
}

// AddValidator registers a validator. Fallback validators are dropped on a
// retry when the quota cannot be filled. Returns the processor for chaining.
func (p *FillProcessor) AddValidator(validator leads.Validator, allowFallback bool) *FillProcessor {
	p.validators.add(validator, allowFallback)
	return p
}

// AddDefaultValidators registers the default validators.
func (p *FillProcessor) AddDefaultValidators() *FillProcessor {
	for _, validator := range defaultValidators() {
		p.validators.add(validator, false)
	}
	return p
}

// ClearValidators removes all registered validators.
func (p *FillProcessor) ClearValidators() *FillProcessor {
	p.validators.clear()
	return p
}

// ValidationInfo summarizes the registered validators.
func (p *FillProcessor) ValidationInfo() string {
	return p.validators.describe()
}

// pullAndValidate hydrates PII for the intent events in quota-sized slices,
// validating each slice, until want leads are collected or the bank empties.
func (p *FillProcessor) pullAndValidate(ctx context.Context, intentEvents []leads.IntentEvent, want int, validators []leads.Validator) ([]leads.MD5WithPII, error) {
	bank := p.client.UniquifyMD5s(intentEvents)

	var collected []leads.MD5WithPII
	for len(collected) < want {
		if len(bank) == 0 {
			p.logger.Warn("Not enough valid leads to fill quota, only have ", len(collected))
			break
		}

		delta := want - len(collected)
		if delta > len(bank) {
			delta = len(bank)
		}

		batch, err := p.client.PIIForUniqueMD5s(ctx, bank[:delta])
		if err != nil {
			return nil, err
		}
		bank = bank[delta:]

		batch, err = runValidators(ctx, validators, batch, p.logger)
		if err != nil {
			return nil, err
		}
		collected = append(collected, batch...)
	}

	return collected, nil
}

// Process over-pulls intent data, then fills the original hem count with
// validated, PII-hydrated leads.
func (p *FillProcessor) Process(ctx context.Context, job leads.IABJob) ([]leads.MD5WithPII, error) {
	target := job.NHems
	job.NHems = int(float64(job.NHems) * p.intentMultiplier)

	listQueueID, err := p.client.CreateAndWait(ctx, job)
	if err != nil {
		return nil, err
	}
	intentEvents, err := p.client.RetrieveMD5s(ctx, listQueueID)
	if err != nil {
		return nil, err
	}

	collected, err := p.pullAndValidate(ctx, intentEvents, target, p.validators.all())
	if err != nil {
		return nil, err
	}
	if len(collected) >= target || len(p.validators.fallback) == 0 {
		return collected, nil
	}

	p.logger.Warn("Only ", len(collected), " of ", target, " leads after validation, retrying without fallback validators")

	included := make(map[string]bool, len(collected))
	for _, lead := range collected {
		included[lead.MD5] = true
	}
	var remaining []leads.IntentEvent
	for _, event := range intentEvents {
		if !included[event.MD5] {
			remaining = append(remaining, event)
		}
	}

	extra, err := p.pullAndValidate(ctx, remaining, target-len(collected), p.validators.required)
	if err != nil {
		return nil, err
	}
	return append(collected, extra...), nil
}
