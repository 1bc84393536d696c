package document

import (
	"context"
	"errors"

	"go-desk/internal/common/models"
	"go-desk/internal/features/action"
	"go-desk/internal/features/meta"
	"go-desk/internal/features/permission"
	"go-desk/internal/features/validation"
	"go-desk/internal/features/workflow"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type DocumentService interface {
	GetForm(ctx context.Context, doctype, name string, sess models.Session) (*FormPayload, error)
	NewForm(ctx context.Context, doctype string, sess models.Session) (*FormPayload, error)
	CreateDoc(ctx context.Context, doctype string, payload models.Document, sess models.Session) (*FormPayload, error)
	UpdateDoc(ctx context.Context, doctype, name string, payload models.Document, sess models.Session) (*FormPayload, error)
	RunAction(ctx context.Context, doctype, name, actionID string, sess models.Session) (*FormPayload, error)
	ValidateDoc(ctx context.Context, doctype string, payload models.Document, sess models.Session) (validation.Result, error)
	ListDocs(ctx context.Context, doctype string, sess models.Session) ([]models.Document, error)
	ExportDocs(ctx context.Context, doctype string, sess models.Session) (*excelize.File, error)
}

type DocumentServiceImpl struct {
	repo      DocumentRepository
	meta      meta.MetaService
	workflows workflow.WorkflowRepository
	registry  *action.Registry
	ops       *Ops
	log       *zap.Logger
}

func NewDocumentService(
	repo DocumentRepository,
	metaService meta.MetaService,
	workflows workflow.WorkflowRepository,
	registry *action.Registry,
	ops *Ops,
	log *zap.Logger,
) DocumentService {
	return &DocumentServiceImpl{
		repo:      repo,
		meta:      metaService,
		workflows: workflows,
		registry:  registry,
		ops:       ops,
		log:       log,
	}
}

// buildContext assembles the read-only snapshot everything downstream
// works from: the permission matrix, the per-document overlay (rules
// plus sharing grants) and the workflow transitions leaving the
// document's current state.
func (s *DocumentServiceImpl) buildContext(ctx context.Context, dt *meta.DocType, doc models.Document, sess models.Session) (*action.ActionContext, error) {
	matrix := permission.Resolve(dt, sess.Roles, sess.UserID)
	perms := permission.ResolveDocPermissions(dt, sess.Roles, sess.UserID, doc.Owner())

	overlay := &permission.Overlay{Permissions: perms}
	if !doc.IsNew() && doc.Name() != "" {
		shares, err := s.repo.GetShares(ctx, dt.Name, doc.Name())
		if err != nil {
			return nil, err
		}
		overlay.Shared = shares
	}

	ac := &action.ActionContext{
		DocType: dt,
		Doc:     doc,
		Overlay: overlay,
		Matrix:  matrix,
		UserID:  sess.UserID,
		Roles:   sess.Roles,
	}

	wf, err := s.workflows.FindActiveByDocType(ctx, dt.Name)
	if err != nil {
		return nil, err
	}
	if wf != nil {
		ac.StateField = wf.StateField
		state, _ := doc.Get(wf.StateField).(string)
		ac.Transitions = wf.TransitionsFrom(state)
	}

	return ac, nil
}

// form renders the payload for an assembled context: dependency
// overrides, compiled field statuses and the filtered action manifest.
func (s *DocumentServiceImpl) form(ac *action.ActionContext) *FormPayload {
	overrides := s.ops.deps.Resolve(ac.DocType.Fields, ac.Doc)
	statuses := permission.CompileAll(ac.DocType, ac.Doc, ac.Matrix, ac.Overlay, overrides, ac.UserID)
	manifest := s.registry.BuildManifest(ac)

	return &FormPayload{
		Doc:           ac.Doc,
		DocInfo:       ac.Overlay,
		Matrix:        ac.Matrix,
		FieldStatuses: statuses,
		Overrides:     overrides,
		Actions:       action.Describe(manifest),
	}
}

func (s *DocumentServiceImpl) GetForm(ctx context.Context, doctype, name string, sess models.Session) (*FormPayload, error) {
	dt, err := s.meta.GetDocType(ctx, doctype)
	if err != nil {
		return nil, err
	}

	doc, err := s.repo.Get(ctx, doctype, name)
	if err != nil {
		return nil, err
	}

	ac, err := s.buildContext(ctx, dt, doc, sess)
	if err != nil {
		return nil, err
	}
	if !ac.Overlay.Allows(permission.CapRead, sess.UserID) {
		return nil, ErrForbidden
	}

	return s.form(ac), nil
}

// NewForm produces the form for an unsaved document so the client can
// render a creation screen with the right statuses and actions.
func (s *DocumentServiceImpl) NewForm(ctx context.Context, doctype string, sess models.Session) (*FormPayload, error) {
	dt, err := s.meta.GetDocType(ctx, doctype)
	if err != nil {
		return nil, err
	}

	doc := models.Document{
		models.KeyIsNew:     true,
		models.KeyOwner:     sess.UserID,
		models.KeyDocstatus: int(models.DocstatusDraft),
	}

	ac, err := s.buildContext(ctx, dt, doc, sess)
	if err != nil {
		return nil, err
	}
	if !ac.Overlay.Allows(permission.CapCreate, sess.UserID) {
		return nil, ErrForbidden
	}

	return s.form(ac), nil
}

func (s *DocumentServiceImpl) CreateDoc(ctx context.Context, doctype string, payload models.Document, sess models.Session) (*FormPayload, error) {
	dt, err := s.meta.GetDocType(ctx, doctype)
	if err != nil {
		return nil, err
	}

	doc := payload.Clone()
	if doc == nil {
		doc = models.Document{}
	}
	doc[models.KeyIsNew] = true
	doc[models.KeyOwner] = sess.UserID
	doc[models.KeyDocstatus] = int(models.DocstatusDraft)

	ac, err := s.buildContext(ctx, dt, doc, sess)
	if err != nil {
		return nil, err
	}
	if !ac.Overlay.Allows(permission.CapCreate, sess.UserID) {
		return nil, ErrForbidden
	}

	if err := s.ops.Save(ctx, ac); err != nil {
		return nil, err
	}

	return s.reload(ctx, dt, ac.Doc.Name(), sess)
}

func (s *DocumentServiceImpl) UpdateDoc(ctx context.Context, doctype, name string, payload models.Document, sess models.Session) (*FormPayload, error) {
	dt, err := s.meta.GetDocType(ctx, doctype)
	if err != nil {
		return nil, err
	}

	doc, err := s.repo.Get(ctx, doctype, name)
	if err != nil {
		return nil, err
	}
	for k, v := range payload {
		switch k {
		case models.KeyName, models.KeyOwner, models.KeyDocstatus, models.KeyIsNew:
			continue
		}
		doc[k] = v
	}

	ac, err := s.buildContext(ctx, dt, doc, sess)
	if err != nil {
		return nil, err
	}

	// Updates go through the manifest so the same checks that decide
	// whether Save is offered also decide whether it runs. A save the
	// manifest does not offer (no write grant, or the document is past
	// draft) is a permission failure, not an unknown action.
	if err := s.execute(ctx, ac, "save"); err != nil {
		if errors.Is(err, ErrActionUnknown) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	return s.reload(ctx, dt, ac.Doc.Name(), sess)
}

// RunAction rebuilds and re-filters the manifest server-side before
// executing, so a stale or forged client toolbar cannot reach an
// action the current state does not offer.
func (s *DocumentServiceImpl) RunAction(ctx context.Context, doctype, name, actionID string, sess models.Session) (*FormPayload, error) {
	dt, err := s.meta.GetDocType(ctx, doctype)
	if err != nil {
		return nil, err
	}

	doc, err := s.repo.Get(ctx, doctype, name)
	if err != nil {
		return nil, err
	}

	ac, err := s.buildContext(ctx, dt, doc, sess)
	if err != nil {
		return nil, err
	}
	if !ac.Overlay.Allows(permission.CapRead, sess.UserID) {
		return nil, ErrForbidden
	}

	if err := s.execute(ctx, ac, actionID); err != nil {
		return nil, err
	}

	payload, err := s.reload(ctx, dt, ac.Doc.Name(), sess)
	if errors.Is(err, ErrNotFound) {
		// The action removed the document (delete).
		return nil, nil
	}
	return payload, err
}

func (s *DocumentServiceImpl) execute(ctx context.Context, ac *action.ActionContext, actionID string) error {
	manifest := s.registry.BuildManifest(ac)
	for _, a := range manifest {
		if a.ID != actionID {
			continue
		}
		if a.Execute == nil {
			return ErrNotExecutable
		}
		return a.Execute(ctx)
	}
	return ErrActionUnknown
}

func (s *DocumentServiceImpl) reload(ctx context.Context, dt *meta.DocType, name string, sess models.Session) (*FormPayload, error) {
	doc, err := s.repo.Get(ctx, dt.Name, name)
	if err != nil {
		return nil, err
	}
	ac, err := s.buildContext(ctx, dt, doc, sess)
	if err != nil {
		return nil, err
	}
	return s.form(ac), nil
}

// ValidateDoc is the dry run: it reports what saving the payload would
// flag, without touching storage.
func (s *DocumentServiceImpl) ValidateDoc(ctx context.Context, doctype string, payload models.Document, sess models.Session) (validation.Result, error) {
	dt, err := s.meta.GetDocType(ctx, doctype)
	if err != nil {
		return validation.Result{}, err
	}

	perms := permission.ResolveDocPermissions(dt, sess.Roles, sess.UserID, sess.UserID)
	overlay := &permission.Overlay{Permissions: perms}
	if !overlay.Allows(permission.CapRead, sess.UserID) {
		return validation.Result{}, ErrForbidden
	}

	overrides := s.ops.deps.Resolve(dt.Fields, payload)
	return validation.Validate(dt, payload, overrides), nil
}

// ListDocs returns the documents the session may read. When only
// owner-scoped rules grant read, the listing is restricted to the
// user's own documents.
func (s *DocumentServiceImpl) ListDocs(ctx context.Context, doctype string, sess models.Session) ([]models.Document, error) {
	dt, err := s.meta.GetDocType(ctx, doctype)
	if err != nil {
		return nil, err
	}

	anyOwner := permission.ResolveDocPermissions(dt, sess.Roles, sess.UserID, "")
	if anyOwner.Has(permission.CapRead) {
		return s.repo.List(ctx, doctype, nil)
	}

	ownOnly := permission.ResolveDocPermissions(dt, sess.Roles, sess.UserID, sess.UserID)
	if ownOnly.Has(permission.CapRead) {
		return s.repo.List(ctx, doctype, bson.M{models.KeyOwner: sess.UserID})
	}

	return nil, ErrForbidden
}
