package document

import (
	"errors"
	"fmt"

	"go-desk/internal/common/models"
	"go-desk/internal/features/action"
	"go-desk/internal/features/dependency"
	"go-desk/internal/features/permission"
	"go-desk/internal/features/validation"
)

var (
	// ErrNotFound means the document does not exist in its collection.
	ErrNotFound = errors.New("document not found")
	// ErrForbidden means the current session lacks the capability.
	ErrForbidden = errors.New("not permitted")
	// ErrActionUnknown means no provider offered the requested action
	// for this document in its current state.
	ErrActionUnknown = errors.New("unknown action")
	// ErrNotExecutable means the action exists but has no server half.
	ErrNotExecutable = errors.New("action is not executable server-side")
)

// ValidationError wraps a failed validation result so callers can
// distinguish "the document is invalid" from infrastructure failures.
type ValidationError struct {
	Result validation.Result
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s)", len(e.Result.Errors))
}

// FormPayload is everything a client needs to render one document
// form: the document, its permission facts, the compiled per-field
// statuses, the dependency overrides and the action manifest.
type FormPayload struct {
	Doc           models.Document                   `json:"doc"`
	DocInfo       *permission.Overlay               `json:"docinfo"`
	Matrix        permission.Matrix                 `json:"matrix"`
	FieldStatuses map[string]permission.FieldStatus `json:"field_statuses"`
	Overrides     dependency.OverrideMap            `json:"overrides"`
	Actions       []action.Descriptor               `json:"actions"`
}
