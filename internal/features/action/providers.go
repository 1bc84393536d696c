package action

import (
	"context"

	"go-desk/internal/common/models"
	"go-desk/internal/features/permission"
	"go-desk/internal/features/workflow"
	"go-desk/pkg/utils"
)

// Executor carries out the server-side half of standard actions. The
// document feature implements it; providers only capture it inside
// Execute closures.
type Executor interface {
	Save(ctx context.Context, ac *ActionContext) error
	Delete(ctx context.Context, ac *ActionContext) error
	Duplicate(ctx context.Context, ac *ActionContext) error
	Submit(ctx context.Context, ac *ActionContext) error
	Cancel(ctx context.Context, ac *ActionContext) error
	Amend(ctx context.Context, ac *ActionContext) error
	ApplyTransition(ctx context.Context, ac *ActionContext, t workflow.Transition) error
}

// CoreProvider emits the operations every doctype has: save, delete,
// duplicate, print, email. Print and email have no server half; the
// client renders them, so their Execute stays nil.
func CoreProvider(exec Executor) Provider {
	return Provider{
		Name: "core",
		Actions: func(ac *ActionContext) ([]Action, error) {
			return []Action{
				{
					ID:       "save",
					Label:    "Save",
					Group:    "document",
					Priority: 0,
					Primary:  true,
					Requirements: []Requirement{
						PermissionRequirement{Capability: permission.CapWrite},
						DocstatusRequirement{Status: models.DocstatusDraft},
					},
					Execute: func(ctx context.Context) error { return exec.Save(ctx, ac) },
				},
				{
					ID:       "delete",
					Label:    "Delete",
					Group:    "document",
					Priority: 30,
					Requirements: []Requirement{
						PermissionRequirement{Capability: permission.CapDelete},
						DocstatusRequirement{Status: models.DocstatusDraft},
						NotNewRequirement{},
					},
					Confirmation: "Permanently delete this document?",
					Execute:      func(ctx context.Context) error { return exec.Delete(ctx, ac) },
				},
				{
					ID:       "duplicate",
					Label:    "Duplicate",
					Group:    "document",
					Priority: 20,
					Requirements: []Requirement{
						PermissionRequirement{Capability: permission.CapCreate},
						NotNewRequirement{},
					},
					Execute: func(ctx context.Context) error { return exec.Duplicate(ctx, ac) },
				},
				{
					ID:       "print",
					Label:    "Print",
					Group:    "tools",
					Priority: 40,
					Requirements: []Requirement{
						PermissionRequirement{Capability: permission.CapPrint},
						NotNewRequirement{},
					},
				},
				{
					ID:       "email",
					Label:    "Email",
					Group:    "tools",
					Priority: 50,
					Requirements: []Requirement{
						PermissionRequirement{Capability: permission.CapEmail},
						NotNewRequirement{},
					},
				},
			}, nil
		},
	}
}

// SubmitProvider emits the submission lifecycle for submittable
// doctypes: submit, cancel, amend.
func SubmitProvider(exec Executor) Provider {
	return Provider{
		Name: "submit",
		Actions: func(ac *ActionContext) ([]Action, error) {
			if ac.DocType == nil || !ac.DocType.Submittable {
				return nil, nil
			}
			return []Action{
				{
					ID:       "submit",
					Label:    "Submit",
					Group:    "document",
					Priority: 1,
					Primary:  true,
					Requirements: []Requirement{
						PermissionRequirement{Capability: permission.CapSubmit},
						DocstatusRequirement{Status: models.DocstatusDraft},
						NotNewRequirement{},
					},
					Confirmation: "Permanently submit this document?",
					Execute:      func(ctx context.Context) error { return exec.Submit(ctx, ac) },
				},
				{
					ID:       "cancel",
					Label:    "Cancel",
					Group:    "document",
					Priority: 10,
					Requirements: []Requirement{
						PermissionRequirement{Capability: permission.CapCancel},
						DocstatusRequirement{Status: models.DocstatusSubmitted},
						NotNewRequirement{},
					},
					Confirmation: "Cancel this document?",
					Execute:      func(ctx context.Context) error { return exec.Cancel(ctx, ac) },
				},
				{
					ID:       "amend",
					Label:    "Amend",
					Group:    "document",
					Priority: 15,
					Requirements: []Requirement{
						PermissionRequirement{Capability: permission.CapAmend},
						DocstatusRequirement{Status: models.DocstatusCancelled},
						NotNewRequirement{},
					},
					Execute: func(ctx context.Context) error { return exec.Amend(ctx, ac) },
				},
			}, nil
		},
	}
}

// WorkflowProvider surfaces the transitions leaving the document's
// current state, filtered by the caller's roles and each transition's
// sandboxed condition.
func WorkflowProvider(exec Executor, eval workflow.ConditionEvaluator) Provider {
	return Provider{
		Name: "workflow",
		Actions: func(ac *ActionContext) ([]Action, error) {
			var out []Action
			for i, t := range ac.Transitions {
				if !t.AllowsAnyRole(ac.Roles) {
					continue
				}
				if !eval.Allowed(t.Condition, ac.Doc) {
					continue
				}

				transition := t
				out = append(out, Action{
					ID:       "workflow-" + utils.Slugify(t.Action),
					Label:    t.Action,
					Group:    "workflow",
					Priority: 100 + i,
					Requirements: []Requirement{
						PermissionRequirement{Capability: permission.CapRead},
						NotNewRequirement{},
					},
					Execute: func(ctx context.Context) error {
						return exec.ApplyTransition(ctx, ac, transition)
					},
				})
			}
			return out, nil
		},
	}
}
