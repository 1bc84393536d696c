package action

import (
	"context"

	"go-desk/internal/common/models"
	"go-desk/internal/features/meta"
	"go-desk/internal/features/permission"
	"go-desk/internal/features/workflow"
)

// ActionContext is the read-only snapshot providers and requirements
// operate over. The engine never mutates it.
type ActionContext struct {
	DocType     *meta.DocType
	Doc         models.Document
	Overlay     *permission.Overlay
	Matrix      permission.Matrix
	Transitions []workflow.Transition // transitions leaving the current state
	StateField  string                // document field the workflow writes its state to
	UserID      string
	Roles       []string
}

// Requirement gates the visibility of one action.
type Requirement interface {
	Satisfied(ctx *ActionContext) bool
}

// PermissionRequirement passes when the overlay grants the capability
// to the current user, sharing upgrades included. Missing overlay data
// fails closed.
type PermissionRequirement struct {
	Capability permission.Capability
}

func (r PermissionRequirement) Satisfied(ctx *ActionContext) bool {
	return ctx.Overlay.Allows(r.Capability, ctx.UserID)
}

// DocstatusRequirement passes when the document is in the given
// lifecycle state.
type DocstatusRequirement struct {
	Status models.Docstatus
}

func (r DocstatusRequirement) Satisfied(ctx *ActionContext) bool {
	return ctx.Doc.Docstatus() == r.Status
}

// NotNewRequirement passes once the document has been saved.
type NotNewRequirement struct{}

func (NotNewRequirement) Satisfied(ctx *ActionContext) bool {
	return !ctx.Doc.IsNew()
}

// PredicateRequirement wraps an arbitrary check. A nil check never
// passes: an empty predicate is a configuration mistake, not a grant.
type PredicateRequirement struct {
	Check func(*ActionContext) bool
}

func (r PredicateRequirement) Satisfied(ctx *ActionContext) bool {
	return r.Check != nil && r.Check(ctx)
}

// Action is one operation offered for a document. Stateless: Execute
// closures capture their collaborators and are opaque to the engine.
// A nil Execute marks a client-side action (e.g. print preview).
type Action struct {
	ID           string                          `json:"id"`
	Label        string                          `json:"label"`
	Group        string                          `json:"group"`
	Priority     int                             `json:"priority"`
	Primary      bool                            `json:"primary"`
	Confirmation string                          `json:"confirmation,omitempty"`
	Requirements []Requirement                   `json:"-"`
	Execute      func(ctx context.Context) error `json:"-"`
}

// Allowed reports whether every requirement passes. Zero requirements
// means the action is always offered.
func (a Action) Allowed(ctx *ActionContext) bool {
	for _, req := range a.Requirements {
		if !req.Satisfied(ctx) {
			return false
		}
	}
	return true
}

// Descriptor is the wire-safe view of an action for toolbar rendering.
type Descriptor struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	Group        string `json:"group"`
	Primary      bool   `json:"primary"`
	Confirmation string `json:"confirmation,omitempty"`
	Executable   bool   `json:"executable"`
}

func (a Action) Descriptor() Descriptor {
	return Descriptor{
		ID:           a.ID,
		Label:        a.Label,
		Group:        a.Group,
		Primary:      a.Primary,
		Confirmation: a.Confirmation,
		Executable:   a.Execute != nil,
	}
}

// Describe maps a manifest to its wire form, preserving order.
func Describe(actions []Action) []Descriptor {
	out := make([]Descriptor, len(actions))
	for i, a := range actions {
		out[i] = a.Descriptor()
	}
	return out
}
