package document

import (
	"context"

	"go-desk/internal/common/models"
	"go-desk/internal/features/action"
	"go-desk/internal/features/dependency"
	"go-desk/internal/features/validation"
	"go-desk/internal/features/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Publisher notifies interested parties that a document changed. The
// system feature's websocket hub implements it.
type Publisher interface {
	PublishDocEvent(doctype, name, event string)
}

// Ops is the server-side half of the standard document actions. The
// action providers capture it in their Execute closures; the service
// reuses it for the plain create and update endpoints.
type Ops struct {
	repo DocumentRepository
	deps *dependency.Resolver
	pub  Publisher
	log  *zap.Logger
}

func NewOps(repo DocumentRepository, deps *dependency.Resolver, pub Publisher, log *zap.Logger) *Ops {
	return &Ops{repo: repo, deps: deps, pub: pub, log: log}
}

func (o *Ops) publish(doctype, name, event string) {
	if o.pub != nil {
		o.pub.PublishDocEvent(doctype, name, event)
	}
}

// validate runs the dependency pass and the validator over the
// document as it currently stands. Invalid is a normal outcome and
// comes back as a ValidationError, not an infrastructure failure.
func (o *Ops) validate(ac *action.ActionContext) error {
	overrides := o.deps.Resolve(ac.DocType.Fields, ac.Doc)
	result := validation.Validate(ac.DocType, ac.Doc, overrides)
	if !result.Valid() {
		return &ValidationError{Result: result}
	}
	return nil
}

// Save validates and persists the document. New documents get a
// generated name and the session user as owner; the mutations are
// made on ac.Doc so the caller sees the assigned name.
func (o *Ops) Save(ctx context.Context, ac *action.ActionContext) error {
	if err := o.validate(ac); err != nil {
		return err
	}

	isNew := ac.Doc.IsNew()
	if isNew {
		if ac.Doc.Name() == "" {
			ac.Doc[models.KeyName] = primitive.NewObjectID().Hex()
		}
		if ac.Doc.Owner() == "" {
			ac.Doc[models.KeyOwner] = ac.UserID
		}
		ac.Doc[models.KeyDocstatus] = int(models.DocstatusDraft)
	}
	delete(ac.Doc, models.KeyIsNew)

	stored := ac.Doc.Clone()
	var err error
	if isNew {
		err = o.repo.Insert(ctx, ac.DocType.Name, stored)
	} else {
		err = o.repo.Update(ctx, ac.DocType.Name, ac.Doc.Name(), stored)
	}
	if err != nil {
		return err
	}

	o.publish(ac.DocType.Name, ac.Doc.Name(), "saved")
	return nil
}

func (o *Ops) Delete(ctx context.Context, ac *action.ActionContext) error {
	if err := o.repo.Delete(ctx, ac.DocType.Name, ac.Doc.Name()); err != nil {
		return err
	}
	o.publish(ac.DocType.Name, ac.Doc.Name(), "deleted")
	return nil
}

// Duplicate inserts a copy of the document as a fresh draft owned by
// the current user. The copy's name is written back into ac.Doc.
func (o *Ops) Duplicate(ctx context.Context, ac *action.ActionContext) error {
	copyDoc := ac.Doc.Clone()
	copyDoc[models.KeyName] = primitive.NewObjectID().Hex()
	copyDoc[models.KeyOwner] = ac.UserID
	copyDoc[models.KeyDocstatus] = int(models.DocstatusDraft)
	delete(copyDoc, models.KeyIsNew)

	if err := o.repo.Insert(ctx, ac.DocType.Name, copyDoc); err != nil {
		return err
	}

	ac.Doc = copyDoc
	o.publish(ac.DocType.Name, copyDoc.Name(), "saved")
	return nil
}

// Submit re-validates and locks the document. Submission is final:
// only cancel and amend move it afterwards.
func (o *Ops) Submit(ctx context.Context, ac *action.ActionContext) error {
	if err := o.validate(ac); err != nil {
		return err
	}

	if err := o.repo.SetField(ctx, ac.DocType.Name, ac.Doc.Name(), models.KeyDocstatus, int(models.DocstatusSubmitted)); err != nil {
		return err
	}
	ac.Doc[models.KeyDocstatus] = int(models.DocstatusSubmitted)

	o.publish(ac.DocType.Name, ac.Doc.Name(), "submitted")
	return nil
}

func (o *Ops) Cancel(ctx context.Context, ac *action.ActionContext) error {
	if err := o.repo.SetField(ctx, ac.DocType.Name, ac.Doc.Name(), models.KeyDocstatus, int(models.DocstatusCancelled)); err != nil {
		return err
	}
	ac.Doc[models.KeyDocstatus] = int(models.DocstatusCancelled)

	o.publish(ac.DocType.Name, ac.Doc.Name(), "cancelled")
	return nil
}

// Amend creates a draft copy of a cancelled document that points back
// at it through amended_from.
func (o *Ops) Amend(ctx context.Context, ac *action.ActionContext) error {
	amended := ac.Doc.Clone()
	amended["amended_from"] = ac.Doc.Name()
	amended[models.KeyName] = primitive.NewObjectID().Hex()
	amended[models.KeyOwner] = ac.UserID
	amended[models.KeyDocstatus] = int(models.DocstatusDraft)
	delete(amended, models.KeyIsNew)

	if err := o.repo.Insert(ctx, ac.DocType.Name, amended); err != nil {
		return err
	}

	ac.Doc = amended
	o.publish(ac.DocType.Name, amended.Name(), "saved")
	return nil
}

// ApplyTransition moves the workflow state field to the transition's
// destination state.
func (o *Ops) ApplyTransition(ctx context.Context, ac *action.ActionContext, t workflow.Transition) error {
	if err := o.repo.SetField(ctx, ac.DocType.Name, ac.Doc.Name(), ac.StateField, t.NextState); err != nil {
		return err
	}
	ac.Doc[ac.StateField] = t.NextState

	o.log.Info("workflow transition applied",
		zap.String("doctype", ac.DocType.Name),
		zap.String("docname", ac.Doc.Name()),
		zap.String("action", t.Action),
		zap.String("next_state", t.NextState),
	)
	o.publish(ac.DocType.Name, ac.Doc.Name(), "transitioned")
	return nil
}
