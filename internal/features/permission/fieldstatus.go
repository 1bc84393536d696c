package permission

import (
	"go-desk/internal/common/models"
	"go-desk/internal/features/dependency"
	"go-desk/internal/features/meta"
)

// FieldStatus is the compiled, final display state of one field. It is
// a closed set: consumers switch over it exhaustively.
type FieldStatus int

const (
	StatusNone FieldStatus = iota
	StatusRead
	StatusWrite
)

func (s FieldStatus) String() string {
	switch s {
	case StatusWrite:
		return "Write"
	case StatusRead:
		return "Read"
	case StatusNone:
		return "None"
	}
	return "None"
}

func (s FieldStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// CompileFieldStatus combines the permission matrix, the per-document
// overlay, dependency overrides, submission state and the field's
// static flags into its final tri-state status. Deterministic and pure.
func CompileFieldStatus(
	field meta.DocField,
	doc models.Document,
	matrix Matrix,
	overlay *Overlay,
	overrides dependency.OverrideMap,
	userID string,
) FieldStatus {
	cell := matrix.Cell(field.PermLevel)
	canRead := cell.Read
	canWrite := cell.Write && !field.ReadOnly

	// Document-level facts apply at level 0 only. Server-computed
	// permissions replace the role answer outright (owner-only rules
	// live there); sharing grants may then upgrade, never downgrade.
	if field.PermLevel == 0 && overlay != nil {
		if overlay.Permissions != nil {
			canRead = overlay.Permissions.Read
			canWrite = overlay.Permissions.Write && !field.ReadOnly
		}
		if share := overlay.ShareFor(userID); share != nil {
			canRead = canRead || share.Grants(CapRead)
			canWrite = canWrite || share.Grants(CapWrite)
		}
	}

	var status FieldStatus
	switch {
	case canWrite && field.Type.IsData():
		status = StatusWrite
	case canRead:
		status = StatusRead
	default:
		status = StatusNone
	}

	if field.Hidden || overrides.For(field.Name).HiddenByDependency {
		return StatusNone
	}
	if overrides.For(field.Name).ReadOnly && status == StatusWrite {
		status = StatusRead
	}

	// No document yet: nothing below applies.
	if doc == nil {
		return status
	}
	// Unsaved documents are not subject to submission-state rules.
	if doc.IsNew() {
		return status
	}

	if doc.Docstatus() == models.DocstatusSubmitted && status == StatusWrite {
		// Submission locks the document down. A field stays writable
		// only when it explicitly allows post-submission edits and the
		// role matrix itself still grants write at its level.
		if !(field.AllowOnSubmit && cell.Write) {
			status = StatusRead
		}
	}

	if status == StatusWrite && field.ReadOnly {
		status = StatusRead
	}

	return status
}

// CompileAll compiles the status of every field in declaration order.
func CompileAll(
	dt *meta.DocType,
	doc models.Document,
	matrix Matrix,
	overlay *Overlay,
	overrides dependency.OverrideMap,
	userID string,
) map[string]FieldStatus {
	out := make(map[string]FieldStatus, len(dt.Fields))
	for _, f := range dt.Fields {
		out[f.Name] = CompileFieldStatus(f, doc, matrix, overlay, overrides, userID)
	}
	return out
}
