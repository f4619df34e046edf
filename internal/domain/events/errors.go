package events

import "fmt"

// NoValidJSONError is returned when a model response contains no parseable
// JSON payload.
type NoValidJSONError struct {
	Content string
}

func (e *NoValidJSONError) Error() string {
	return fmt.Sprintf("no valid JSON found in response: %.200s", e.Content)
}

// NoEventsFoundError is returned when a generator finds no events for a zip
// code.
type NoEventsFoundError struct {
	ZipCode string
}

func (e *NoEventsFoundError) Error() string {
	return fmt.Sprintf("no events found for zip code %s", e.ZipCode)
}
