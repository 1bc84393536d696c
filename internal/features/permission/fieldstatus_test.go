package permission

import (
	"testing"

	"go-desk/internal/common/models"
	"go-desk/internal/features/dependency"
	"go-desk/internal/features/meta"
)

func draftDoc() models.Document {
	return models.Document{"name": "INV-0001", "docstatus": 0, "owner": "me@example.com"}
}

func submittedDoc() models.Document {
	return models.Document{"name": "INV-0001", "docstatus": 1, "owner": "me@example.com"}
}

func TestCompileFieldStatus(t *testing.T) {
	rwMatrix := Matrix{0: {Read: true, Write: true}}
	roMatrix := Matrix{0: {Read: true}}

	tests := []struct {
		name      string
		field     meta.DocField
		doc       models.Document
		matrix    Matrix
		overlay   *Overlay
		overrides dependency.OverrideMap
		user      string
		want      FieldStatus
	}{
		{
			name:   "write grant gives Write",
			field:  meta.DocField{Name: "customer", Type: meta.FieldTypeText},
			doc:    draftDoc(),
			matrix: rwMatrix,
			want:   StatusWrite,
		},
		{
			name:   "read-only grant compiles to Read",
			field:  meta.DocField{Name: "customer", Type: meta.FieldTypeText},
			doc:    draftDoc(),
			matrix: roMatrix,
			want:   StatusRead,
		},
		{
			name:   "no grant is None",
			field:  meta.DocField{Name: "customer", Type: meta.FieldTypeText},
			doc:    draftDoc(),
			matrix: Matrix{0: {}},
			want:   StatusNone,
		},
		{
			name:   "missing level fails closed",
			field:  meta.DocField{Name: "margin", Type: meta.FieldTypeCurrency, PermLevel: 3},
			doc:    draftDoc(),
			matrix: rwMatrix,
			want:   StatusNone,
		},
		{
			name:   "static read_only blocks write",
			field:  meta.DocField{Name: "total", Type: meta.FieldTypeCurrency, ReadOnly: true},
			doc:    draftDoc(),
			matrix: rwMatrix,
			want:   StatusRead,
		},
		{
			name:   "static hidden wins over everything",
			field:  meta.DocField{Name: "internal", Type: meta.FieldTypeText, Hidden: true},
			doc:    draftDoc(),
			matrix: rwMatrix,
			want:   StatusNone,
		},
		{
			name:      "dependency hides the field",
			field:     meta.DocField{Name: "reason", Type: meta.FieldTypeText},
			doc:       draftDoc(),
			matrix:    rwMatrix,
			overrides: dependency.OverrideMap{"reason": {HiddenByDependency: true}},
			want:      StatusNone,
		},
		{
			name:      "dynamic read-only downgrades write",
			field:     meta.DocField{Name: "rate", Type: meta.FieldTypeCurrency},
			doc:       draftDoc(),
			matrix:    rwMatrix,
			overrides: dependency.OverrideMap{"rate": {ReadOnly: true}},
			want:      StatusRead,
		},
		{
			name:   "structural field never writes",
			field:  meta.DocField{Name: "details_section", Type: meta.FieldTypeSectionBreak},
			doc:    draftDoc(),
			matrix: rwMatrix,
			want:   StatusRead,
		},
		{
			name:   "no document keeps the computed status",
			field:  meta.DocField{Name: "customer", Type: meta.FieldTypeText},
			doc:    nil,
			matrix: rwMatrix,
			want:   StatusWrite,
		},
		{
			name:   "submitted document locks fields",
			field:  meta.DocField{Name: "customer", Type: meta.FieldTypeText},
			doc:    submittedDoc(),
			matrix: rwMatrix,
			want:   StatusRead,
		},
		{
			name:   "allow_on_submit keeps write after submission",
			field:  meta.DocField{Name: "remarks", Type: meta.FieldTypeTextArea, AllowOnSubmit: true},
			doc:    submittedDoc(),
			matrix: rwMatrix,
			want:   StatusWrite,
		},
		{
			name:   "allow_on_submit without matrix write stays read",
			field:  meta.DocField{Name: "remarks", Type: meta.FieldTypeTextArea, AllowOnSubmit: true},
			doc:    submittedDoc(),
			matrix: roMatrix,
			want:   StatusRead,
		},
		{
			name:   "new documents ignore submission rules",
			field:  meta.DocField{Name: "customer", Type: meta.FieldTypeText},
			doc:    models.Document{"docstatus": 1, models.KeyIsNew: true},
			matrix: rwMatrix,
			want:   StatusWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompileFieldStatus(tt.field, tt.doc, tt.matrix, tt.overlay, tt.overrides, tt.user)
			if got != tt.want {
				t.Errorf("CompileFieldStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompileFieldStatusOverlay(t *testing.T) {
	field := meta.DocField{Name: "customer", Type: meta.FieldTypeText}
	rwMatrix := Matrix{0: {Read: true, Write: true}}

	t.Run("document permissions replace the role answer", func(t *testing.T) {
		overlay := &Overlay{Permissions: &DocPermissions{Read: true, Write: false}}
		got := CompileFieldStatus(field, draftDoc(), rwMatrix, overlay, nil, "me@example.com")
		if got != StatusRead {
			t.Errorf("overlay should replace role-derived write, got %v", got)
		}
	})

	t.Run("share upgrades but never downgrades", func(t *testing.T) {
		overlay := &Overlay{
			Permissions: &DocPermissions{Read: true},
			Shared:      []DocShare{{User: "me@example.com", Write: true}},
		}
		got := CompileFieldStatus(field, draftDoc(), Matrix{0: {}}, overlay, nil, "me@example.com")
		if got != StatusWrite {
			t.Errorf("share grant should upgrade to Write, got %v", got)
		}

		// The same share for a different user changes nothing
		got = CompileFieldStatus(field, draftDoc(), Matrix{0: {}}, overlay, nil, "other@example.com")
		if got != StatusRead {
			t.Errorf("foreign share must not apply, got %v", got)
		}
	})

	t.Run("shares do not reach levels above zero", func(t *testing.T) {
		leveled := meta.DocField{Name: "margin", Type: meta.FieldTypeCurrency, PermLevel: 2}
		overlay := &Overlay{
			Permissions: &DocPermissions{Read: true, Write: true},
			Shared:      []DocShare{{User: "me@example.com", Write: true}},
		}
		got := CompileFieldStatus(leveled, draftDoc(), Matrix{0: {Read: true, Write: true}, 2: {Read: true}}, overlay, nil, "me@example.com")
		if got == StatusWrite {
			t.Error("sharing upgrades apply only at level 0")
		}
		if got != StatusRead {
			t.Errorf("level 2 read grant should survive, got %v", got)
		}
	})
}

func TestCompileAllOrderIndependence(t *testing.T) {
	dt := invoiceDocType()
	matrix := Resolve(dt, []string{"Sales User"}, "me@example.com")
	doc := draftDoc()

	a := CompileAll(dt, doc, matrix, nil, nil, "me@example.com")
	b := CompileAll(dt, doc, matrix, nil, nil, "me@example.com")
	for name, status := range a {
		if b[name] != status {
			t.Errorf("recomputation changed %s: %v vs %v", name, status, b[name])
		}
	}

	// Sales User has no level-2 rule: the margin field must not leak.
	if a["margin"] != StatusNone {
		t.Errorf("margin = %v, want None for a role without the level", a["margin"])
	}
}
