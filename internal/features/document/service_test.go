package document

import (
	"context"
	"errors"
	"testing"

	"go-desk/internal/common/models"
	"go-desk/internal/features/action"
	"go-desk/internal/features/meta"
	"go-desk/internal/features/permission"
	"go-desk/internal/features/workflow"

	"go.uber.org/zap"
)

func newTestService(repo *fakeRepo, workflows *fakeWorkflows, doctypes ...*meta.DocType) DocumentService {
	ops := newTestOps(repo, &fakePublisher{})

	reg := action.NewRegistry(zap.NewNop())
	reg.Register(action.CoreProvider(ops))
	reg.Register(action.SubmitProvider(ops))
	reg.Register(action.WorkflowProvider(ops, allowAllConditions{}))

	byName := make(map[string]*meta.DocType)
	for _, dt := range doctypes {
		byName[dt.Name] = dt
	}
	metaSvc := &fakeMeta{doctypes: byName}

	return NewDocumentService(repo, metaSvc, workflows, reg, ops, zap.NewNop())
}

func sessionFor(user string, roles ...string) models.Session {
	return models.Session{UserID: user, Roles: roles}
}

func seedInvoice(repo *fakeRepo, name, owner string, docstatus int) {
	repo.put("Invoice", models.Document{
		models.KeyName:      name,
		models.KeyOwner:     owner,
		models.KeyDocstatus: docstatus,
		"customer":          "ACME",
		"status":            "Pending",
	})
}

func actionIDs(descriptors []action.Descriptor) map[string]bool {
	out := make(map[string]bool, len(descriptors))
	for _, d := range descriptors {
		out[d.ID] = true
	}
	return out
}

func TestGetFormManifestByRole(t *testing.T) {
	repo := newFakeRepo()
	seedInvoice(repo, "INV-1", "alice", 0)
	svc := newTestService(repo, &fakeWorkflows{}, invoiceDocType())

	t.Run("full access", func(t *testing.T) {
		payload, err := svc.GetForm(context.Background(), "Invoice", "INV-1", sessionFor("alice", "Sales User"))
		if err != nil {
			t.Fatalf("GetForm: %v", err)
		}
		have := actionIDs(payload.Actions)
		for _, want := range []string{"save", "submit", "delete", "duplicate"} {
			if !have[want] {
				t.Errorf("missing action %q", want)
			}
		}
		if payload.FieldStatuses["customer"] != permission.StatusWrite {
			t.Errorf("customer status = %v, want write", payload.FieldStatuses["customer"])
		}
	})

	t.Run("read-only role", func(t *testing.T) {
		payload, err := svc.GetForm(context.Background(), "Invoice", "INV-1", sessionFor("bob", "Sales Viewer"))
		if err != nil {
			t.Fatalf("GetForm: %v", err)
		}
		have := actionIDs(payload.Actions)
		if have["save"] || have["delete"] || have["submit"] {
			t.Errorf("viewer was offered mutating actions: %v", payload.Actions)
		}
		if payload.FieldStatuses["customer"] != permission.StatusRead {
			t.Errorf("customer status = %v, want read", payload.FieldStatuses["customer"])
		}
	})

	t.Run("no role", func(t *testing.T) {
		_, err := svc.GetForm(context.Background(), "Invoice", "INV-1", sessionFor("mallory"))
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("err = %v, want ErrForbidden", err)
		}
	})
}

func TestGetFormSharedDocument(t *testing.T) {
	repo := newFakeRepo()
	seedInvoice(repo, "INV-1", "alice", 0)
	repo.AddShare(context.Background(), "Invoice", "INV-1", permission.DocShare{User: "dave", Read: true})
	svc := newTestService(repo, &fakeWorkflows{}, invoiceDocType())

	payload, err := svc.GetForm(context.Background(), "Invoice", "INV-1", sessionFor("dave"))
	if err != nil {
		t.Fatalf("GetForm via share: %v", err)
	}
	if payload.FieldStatuses["customer"] != permission.StatusRead {
		t.Errorf("shared reader got status %v, want read", payload.FieldStatuses["customer"])
	}

	// The share is scoped to this document only.
	seedInvoice(repo, "INV-2", "alice", 0)
	if _, err := svc.GetForm(context.Background(), "Invoice", "INV-2", sessionFor("dave")); !errors.Is(err, ErrForbidden) {
		t.Errorf("unshared document err = %v, want ErrForbidden", err)
	}
}

func TestCreateDoc(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeWorkflows{}, invoiceDocType())

	payload, err := svc.CreateDoc(context.Background(), "Invoice",
		models.Document{"customer": "ACME", "total": 10.0},
		sessionFor("alice", "Sales User"))
	if err != nil {
		t.Fatalf("CreateDoc: %v", err)
	}
	if payload.Doc.Name() == "" {
		t.Error("created document has no name")
	}
	if payload.Doc.Owner() != "alice" {
		t.Errorf("owner = %q, want alice", payload.Doc.Owner())
	}

	if _, err := svc.CreateDoc(context.Background(), "Invoice",
		models.Document{"customer": "ACME"},
		sessionFor("bob", "Sales Viewer")); !errors.Is(err, ErrForbidden) {
		t.Errorf("viewer create err = %v, want ErrForbidden", err)
	}
}

func TestCreateDocInvalid(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeWorkflows{}, invoiceDocType())

	_, err := svc.CreateDoc(context.Background(), "Invoice",
		models.Document{"total": 10.0},
		sessionFor("alice", "Sales User"))

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(repo.docs["Invoice"]) != 0 {
		t.Error("invalid create persisted a document")
	}
}

func TestUpdateDoc(t *testing.T) {
	repo := newFakeRepo()
	seedInvoice(repo, "INV-1", "alice", 0)
	svc := newTestService(repo, &fakeWorkflows{}, invoiceDocType())

	payload, err := svc.UpdateDoc(context.Background(), "Invoice", "INV-1",
		models.Document{"customer": "Globex", models.KeyOwner: "mallory"},
		sessionFor("alice", "Sales User"))
	if err != nil {
		t.Fatalf("UpdateDoc: %v", err)
	}
	if payload.Doc.Get("customer") != "Globex" {
		t.Errorf("customer = %v, want Globex", payload.Doc.Get("customer"))
	}
	if payload.Doc.Owner() != "alice" {
		t.Error("payload overwrote the reserved owner key")
	}
}

func TestUpdateDocSubmitted(t *testing.T) {
	repo := newFakeRepo()
	seedInvoice(repo, "INV-1", "alice", 1)
	svc := newTestService(repo, &fakeWorkflows{}, invoiceDocType())

	_, err := svc.UpdateDoc(context.Background(), "Invoice", "INV-1",
		models.Document{"customer": "Globex"},
		sessionFor("alice", "Sales User"))
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestRunAction(t *testing.T) {
	t.Run("submit", func(t *testing.T) {
		repo := newFakeRepo()
		seedInvoice(repo, "INV-1", "alice", 0)
		svc := newTestService(repo, &fakeWorkflows{}, invoiceDocType())

		payload, err := svc.RunAction(context.Background(), "Invoice", "INV-1", "submit", sessionFor("alice", "Sales User"))
		if err != nil {
			t.Fatalf("RunAction submit: %v", err)
		}
		if payload.Doc.Docstatus() != models.DocstatusSubmitted {
			t.Errorf("docstatus = %d, want submitted", payload.Doc.Docstatus())
		}

		have := actionIDs(payload.Actions)
		if have["save"] || have["submit"] {
			t.Error("submitted form still offers draft actions")
		}
		if !have["cancel"] {
			t.Error("submitted form does not offer cancel")
		}
	})

	t.Run("delete returns no form", func(t *testing.T) {
		repo := newFakeRepo()
		seedInvoice(repo, "INV-1", "alice", 0)
		svc := newTestService(repo, &fakeWorkflows{}, invoiceDocType())

		payload, err := svc.RunAction(context.Background(), "Invoice", "INV-1", "delete", sessionFor("alice", "Sales User"))
		if err != nil {
			t.Fatalf("RunAction delete: %v", err)
		}
		if payload != nil {
			t.Error("expected no payload after delete")
		}
	})

	t.Run("unknown action", func(t *testing.T) {
		repo := newFakeRepo()
		seedInvoice(repo, "INV-1", "alice", 0)
		svc := newTestService(repo, &fakeWorkflows{}, invoiceDocType())

		_, err := svc.RunAction(context.Background(), "Invoice", "INV-1", "frobnicate", sessionFor("alice", "Sales User"))
		if !errors.Is(err, ErrActionUnknown) {
			t.Fatalf("err = %v, want ErrActionUnknown", err)
		}
	})

	t.Run("filtered action behaves as unknown", func(t *testing.T) {
		repo := newFakeRepo()
		seedInvoice(repo, "INV-1", "alice", 0)
		svc := newTestService(repo, &fakeWorkflows{}, invoiceDocType())

		// A viewer can read the form but save is not in their manifest.
		_, err := svc.RunAction(context.Background(), "Invoice", "INV-1", "save", sessionFor("bob", "Sales Viewer"))
		if !errors.Is(err, ErrActionUnknown) {
			t.Fatalf("err = %v, want ErrActionUnknown", err)
		}
	})

	t.Run("client-side action", func(t *testing.T) {
		repo := newFakeRepo()
		seedInvoice(repo, "INV-1", "alice", 0)
		dt := invoiceDocType()
		dt.Permissions[0].Print = true
		svc := newTestService(repo, &fakeWorkflows{}, dt)

		_, err := svc.RunAction(context.Background(), "Invoice", "INV-1", "print", sessionFor("alice", "Sales User"))
		if !errors.Is(err, ErrNotExecutable) {
			t.Fatalf("err = %v, want ErrNotExecutable", err)
		}
	})
}

func TestRunActionWorkflowTransition(t *testing.T) {
	repo := newFakeRepo()
	seedInvoice(repo, "INV-1", "alice", 0)

	workflows := &fakeWorkflows{byDocType: map[string]*workflow.Workflow{
		"Invoice": {
			Name:       "Invoice Approval",
			DocType:    "Invoice",
			StateField: "status",
			IsActive:   true,
			Transitions: []workflow.Transition{
				{Action: "Approve", State: "Pending", NextState: "Approved", AllowedRoles: []string{"Sales User"}},
				{Action: "Reject", State: "Pending", NextState: "Rejected", AllowedRoles: []string{"Sales Manager"}},
			},
		},
	}}
	svc := newTestService(repo, workflows, invoiceDocType())

	payload, err := svc.GetForm(context.Background(), "Invoice", "INV-1", sessionFor("alice", "Sales User"))
	if err != nil {
		t.Fatalf("GetForm: %v", err)
	}
	have := actionIDs(payload.Actions)
	if !have["workflow-approve"] {
		t.Errorf("manifest missing workflow action: %v", payload.Actions)
	}
	if have["workflow-reject"] {
		t.Error("manifest offers a transition restricted to another role")
	}

	payload, err = svc.RunAction(context.Background(), "Invoice", "INV-1", "workflow-approve", sessionFor("alice", "Sales User"))
	if err != nil {
		t.Fatalf("RunAction workflow-approve: %v", err)
	}
	if payload.Doc.Get("status") != "Approved" {
		t.Errorf("status = %v, want Approved", payload.Doc.Get("status"))
	}

	// Approved has no outgoing transitions, so the buttons disappear.
	if ids := actionIDs(payload.Actions); ids["workflow-approve"] {
		t.Error("refreshed manifest still offers the taken transition")
	}
}

func TestListDocsOwnerScoped(t *testing.T) {
	dt := invoiceDocType()
	dt.Permissions = append(dt.Permissions, meta.DocPerm{
		Role: "Sales Own", PermLevel: 0, IfOwner: true, Read: true, Write: true,
	})

	repo := newFakeRepo()
	seedInvoice(repo, "INV-1", "alice", 0)
	seedInvoice(repo, "INV-2", "bob", 0)
	svc := newTestService(repo, &fakeWorkflows{}, dt)

	all, err := svc.ListDocs(context.Background(), "Invoice", sessionFor("carol", "Sales Viewer"))
	if err != nil {
		t.Fatalf("ListDocs: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("viewer sees %d documents, want 2", len(all))
	}

	own, err := svc.ListDocs(context.Background(), "Invoice", sessionFor("alice", "Sales Own"))
	if err != nil {
		t.Fatalf("ListDocs owner-scoped: %v", err)
	}
	if len(own) != 1 || own[0].Name() != "INV-1" {
		t.Errorf("owner-scoped listing = %v, want only INV-1", own)
	}

	if _, err := svc.ListDocs(context.Background(), "Invoice", sessionFor("mallory")); !errors.Is(err, ErrForbidden) {
		t.Errorf("roleless list err = %v, want ErrForbidden", err)
	}
}

func TestValidateDocDryRun(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeWorkflows{}, invoiceDocType())

	result, err := svc.ValidateDoc(context.Background(), "Invoice",
		models.Document{"total": 10.0},
		sessionFor("alice", "Sales User"))
	if err != nil {
		t.Fatalf("ValidateDoc: %v", err)
	}
	if result.Valid() {
		t.Fatal("expected a mandatory finding")
	}
	if result.FirstField != "customer" {
		t.Errorf("FirstField = %q, want customer", result.FirstField)
	}
	if len(repo.docs["Invoice"]) != 0 {
		t.Error("dry run touched storage")
	}
}

func TestGetFormUnknownDocType(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeWorkflows{}, invoiceDocType())

	_, err := svc.GetForm(context.Background(), "Widget", "X", sessionFor("alice", "Sales User"))
	if !errors.Is(err, meta.ErrNotFound) {
		t.Fatalf("err = %v, want meta.ErrNotFound", err)
	}
}
