package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go-desk/internal/common/models"
	"go-desk/internal/features/dependency"
	"go-desk/internal/features/meta"
)

type ErrorKind string

const (
	KindMandatory ErrorKind = "mandatory"
	KindFormat    ErrorKind = "format"
	KindLength    ErrorKind = "length"
)

// Error is one validation finding. Errors are data, never panics or
// Go errors: an invalid document is a normal outcome.
type Error struct {
	FieldName string    `json:"fieldname"`
	Label     string    `json:"label"`
	Message   string    `json:"message"`
	Kind      ErrorKind `json:"kind"`
	TableName string    `json:"tablename,omitempty"`
	Row       int       `json:"row,omitempty"`
}

// Result is the outcome of validating one document. FirstField carries
// the first failing field's name for jump-to-first-error behavior.
type Result struct {
	Errors     []Error `json:"errors"`
	FirstField string  `json:"first_field,omitempty"`
}

func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9()\-\s.]{4,20}$`)
)

// Validate runs mandatory and format checks over every visible,
// editable data-bearing field, in declaration order. Cancelled documents are exempt: they are
// frozen history and no edit can reach them anyway.
func Validate(dt *meta.DocType, doc models.Document, overrides dependency.OverrideMap) Result {
	var result Result
	if dt == nil || doc == nil {
		return result
	}
	if doc.Docstatus() == models.DocstatusCancelled {
		return result
	}

	for _, field := range dt.Fields {
		if !field.Type.IsData() {
			continue
		}

		ov := overrides.For(field.Name)
		if field.Hidden || ov.HiddenByDependency {
			continue
		}
		// Read-only fields are not user input; neither mandatory nor
		// format checks apply to them.
		if field.ReadOnly || ov.ReadOnly {
			continue
		}

		value := doc.Get(field.Name)

		mandatory := field.Required || ov.Required
		if mandatory && isEmpty(value) {
			result.Errors = append(result.Errors, mandatoryError(field))
			// Mandatory and format checks are independent, but an
			// empty value has no format to check.
			continue
		}

		if isEmpty(value) {
			continue
		}
		if err := checkFormat(field, value); err != nil {
			result.Errors = append(result.Errors, *err)
		}
	}

	if len(result.Errors) > 0 {
		result.FirstField = result.Errors[0].FieldName
	}
	return result
}

func mandatoryError(field meta.DocField) Error {
	e := Error{
		FieldName: field.Name,
		Label:     field.Label,
		Message:   fmt.Sprintf("%s is mandatory", labelOf(field)),
		Kind:      KindMandatory,
	}
	if field.Type == meta.FieldTypeTable {
		e.TableName = field.Name
		e.Message = fmt.Sprintf("%s must have at least one row", labelOf(field))
	}
	return e
}

// isEmpty implements the documented emptiness rules: nil, empty or
// whitespace-only strings and empty arrays are empty. Numeric zero and
// false are values, not absences.
func isEmpty(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		// Numbers and booleans are present even when zero or false
		return false
	}
}

func checkFormat(field meta.DocField, value interface{}) *Error {
	str, isString := value.(string)

	switch field.Type {
	case meta.FieldTypeEmail:
		if !isString || !emailPattern.MatchString(str) {
			return formatError(field, "is not a valid email address")
		}
	case meta.FieldTypeURL:
		if !isString || !isValidURL(str) {
			return formatError(field, "is not a valid URL")
		}
	case meta.FieldTypePhone:
		if !isString || !phonePattern.MatchString(str) {
			return formatError(field, "is not a valid phone number")
		}
	}

	if field.MaxLength > 0 && isString && len([]rune(str)) > field.MaxLength {
		return &Error{
			FieldName: field.Name,
			Label:     field.Label,
			Message:   fmt.Sprintf("%s cannot exceed %d characters", labelOf(field), field.MaxLength),
			Kind:      KindLength,
		}
	}

	return nil
}

func formatError(field meta.DocField, what string) *Error {
	return &Error{
		FieldName: field.Name,
		Label:     field.Label,
		Message:   fmt.Sprintf("%s %s", labelOf(field), what),
		Kind:      KindFormat,
	}
}

func isValidURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func labelOf(field meta.DocField) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}
