package validation

import "errors"

var (
	// ErrRulesUnavailable is returned when no usable rule set could be resolved for an entity type.
	ErrRulesUnavailable = errors.New("validation rules unavailable")
	// ErrUnknownEntityType is returned by the fallback validator for entity types it has no rules for.
	ErrUnknownEntityType = errors.New("unknown entity type")
)

// ValidationError is one failed constraint on one field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
