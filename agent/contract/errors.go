package contract

import "errors"

var (
	ErrAmbiguousSlot     = errors.New("ambiguous slot")
	ErrUnresolvedSlot    = errors.New("unresolved slot")
	ErrContradictorySlot = errors.New("contradictory slot")
	ErrToolUnavailable   = errors.New("tool unavailable")
	ErrLLMUnavailable    = errors.New("llm unavailable")
	ErrSchemaViolation   = errors.New("model response violates schema")
	ErrValidation        = errors.New("validation failed")
)
