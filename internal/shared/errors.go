package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrInvalidLayout = fmt.Errorf("invalid layout")
	ErrUnknownGame   = fmt.Errorf("unknown game")

	// Stream payload errors
	ErrMalformedPayload = fmt.Errorf("malformed payload")
	ErrMissingTarget    = fmt.Errorf("missing target element")

	// Subscription and transport errors
	ErrAlreadySubscribed = fmt.Errorf("subscription already active")
	ErrTransport         = fmt.Errorf("transport failure")
	ErrStreamClosed      = fmt.Errorf("stream closed by server")
	ErrBadStatus         = fmt.Errorf("unexpected response status")
	ErrBadContentType    = fmt.Errorf("unexpected content type")

	// Journal errors
	ErrJournalDisabled = fmt.Errorf("journal disabled")
	ErrSessionNotFound = fmt.Errorf("session not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
