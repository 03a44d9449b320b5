package billing

import "errors"

var (
	// ErrGatewayNotConfigured indicates no WhatsApp gateway is set up.
	ErrGatewayNotConfigured = errors.New("billing: whatsapp gateway not configured")
	// ErrEmptyBatch indicates nothing was selected for sending.
	ErrEmptyBatch = errors.New("billing: no candidates selected")
	// ErrInvalidTemplate indicates a message template failed to parse.
	ErrInvalidTemplate = errors.New("billing: invalid message template")
	// ErrInvalidConfig indicates an unusable configuration value.
	ErrInvalidConfig = errors.New("billing: invalid config")
)
