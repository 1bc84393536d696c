package permission

import (
	"testing"

	"go-desk/internal/common/models"
	"go-desk/internal/features/meta"
)

func invoiceDocType() *meta.DocType {
	return &meta.DocType{
		Name:        "invoice",
		Submittable: true,
		Fields: []meta.DocField{
			{Name: "customer", Type: meta.FieldTypeText, PermLevel: 0},
			{Name: "grand_total", Type: meta.FieldTypeCurrency, PermLevel: 0},
			{Name: "margin", Type: meta.FieldTypeCurrency, PermLevel: 2},
		},
		Permissions: []meta.DocPerm{
			{Role: "Sales User", PermLevel: 0, Read: true, Write: true, Create: true, Print: true, Email: true},
			{Role: "Sales Manager", PermLevel: 0, Read: true, Write: true, Submit: true, Cancel: true, Amend: true, Delete: true, Share: true, Export: true},
			{Role: "Sales Manager", PermLevel: 2, Read: true, Write: true},
			{Role: "Accounts User", PermLevel: 2, Read: true},
		},
	}
}

func TestResolveSeedsLevelZero(t *testing.T) {
	matrix := Resolve(invoiceDocType(), nil, "nobody@example.com")

	cell, ok := matrix[0]
	if !ok {
		t.Fatal("matrix must always contain level 0")
	}
	if cell.Read || cell.Write {
		t.Errorf("no matching rules should mean no permission, got %+v", cell)
	}
}

func TestResolveNilDocType(t *testing.T) {
	matrix := Resolve(nil, []string{"Sales User"}, "u@example.com")
	if cell := matrix.Cell(0); cell.Read || cell.Write {
		t.Errorf("missing metadata must fail closed, got %+v", cell)
	}
}

func TestResolveAdministrator(t *testing.T) {
	dt := invoiceDocType()

	// Both the reserved identity and the reserved role bypass rules.
	for _, tc := range []struct {
		name  string
		roles []string
		user  string
	}{
		{"by identity", nil, models.Administrator},
		{"by role", []string{"Guest", models.Administrator}, "someone@example.com"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			matrix := Resolve(dt, tc.roles, tc.user)
			for level := 0; level <= dt.MaxPermLevel(); level++ {
				if cell := matrix.Cell(level); !cell.Read || !cell.Write {
					t.Errorf("level %d = %+v, want full access", level, cell)
				}
			}
			// Safety margin above the highest observed level
			if cell := matrix.Cell(dt.MaxPermLevel() + 1); !cell.Read || !cell.Write {
				t.Error("administrator matrix should extend one level past metadata")
			}
		})
	}
}

func TestResolveORMergesRoles(t *testing.T) {
	dt := invoiceDocType()

	matrix := Resolve(dt, []string{"Accounts User", "Sales Manager"}, "u@example.com")

	// Accounts User grants read-only at level 2, Sales Manager grants
	// write; the union must hold both.
	if cell := matrix.Cell(2); !cell.Read || !cell.Write {
		t.Errorf("level 2 = %+v, want OR-merged {true true}", cell)
	}
}

func TestResolveORMergeWithinRole(t *testing.T) {
	dt := &meta.DocType{
		Name: "task",
		Permissions: []meta.DocPerm{
			{Role: "Employee", PermLevel: 0, Read: true},
			{Role: "Employee", PermLevel: 0, Read: false, Write: true},
		},
	}

	// Two rules for the same role and level: outcomes are ORed, the
	// second rule cannot overwrite the first's read grant.
	matrix := Resolve(dt, []string{"Employee"}, "u@example.com")
	if cell := matrix.Cell(0); !cell.Read || !cell.Write {
		t.Errorf("level 0 = %+v, want {true true}", cell)
	}
}

func TestResolveReadWithoutWrite(t *testing.T) {
	dt := &meta.DocType{
		Name: "lead",
		Permissions: []meta.DocPerm{
			{Role: "Sales User", PermLevel: 0, Read: true, Write: false},
		},
	}

	matrix := Resolve(dt, []string{"Sales User"}, "u@example.com")
	if cell := matrix.Cell(0); !cell.Read || cell.Write {
		t.Errorf("level 0 = %+v, want {read:true write:false}", cell)
	}
}

func TestMergeCellProperties(t *testing.T) {
	cells := []Cell{{}, {Read: true}, {Write: true}, {Read: true, Write: true}}
	for _, a := range cells {
		for _, b := range cells {
			if MergeCell(a, b) != MergeCell(b, a) {
				t.Fatalf("merge not commutative for %+v, %+v", a, b)
			}
			for _, c := range cells {
				if MergeCell(MergeCell(a, b), c) != MergeCell(a, MergeCell(b, c)) {
					t.Fatalf("merge not associative for %+v, %+v, %+v", a, b, c)
				}
			}
		}
	}
}

func TestResolveDocPermissionsOwnerOnly(t *testing.T) {
	dt := &meta.DocType{
		Name: "expense_claim",
		Permissions: []meta.DocPerm{
			{Role: "Employee", PermLevel: 0, IfOwner: true, Read: true, Write: true},
			{Role: "Expense Approver", PermLevel: 0, Read: true, Write: true, Submit: true},
		},
	}

	owned := ResolveDocPermissions(dt, []string{"Employee"}, "me@example.com", "me@example.com")
	if !owned.Read || !owned.Write {
		t.Errorf("owner should read/write their own document, got %+v", owned)
	}

	foreign := ResolveDocPermissions(dt, []string{"Employee"}, "me@example.com", "other@example.com")
	if foreign.Read || foreign.Write {
		t.Errorf("owner-only rule must not apply to foreign documents, got %+v", foreign)
	}

	approver := ResolveDocPermissions(dt, []string{"Expense Approver"}, "boss@example.com", "me@example.com")
	if !approver.Submit {
		t.Errorf("unconditional rule should grant submit, got %+v", approver)
	}
}
