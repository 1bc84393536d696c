package document

import (
	"context"

	"go-desk/internal/common/models"
	"go-desk/internal/features/meta"
	"go-desk/internal/features/permission"
	"go-desk/internal/features/workflow"

	"go.mongodb.org/mongo-driver/bson"
)

type fakeRepo struct {
	docs   map[string]map[string]models.Document
	shares map[string][]permission.DocShare
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:   make(map[string]map[string]models.Document),
		shares: make(map[string][]permission.DocShare),
	}
}

func (r *fakeRepo) key(doctype, name string) string { return doctype + "/" + name }

func (r *fakeRepo) put(doctype string, doc models.Document) {
	if r.docs[doctype] == nil {
		r.docs[doctype] = make(map[string]models.Document)
	}
	r.docs[doctype][doc.Name()] = doc.Clone()
}

func (r *fakeRepo) Get(_ context.Context, doctype, name string) (models.Document, error) {
	doc, ok := r.docs[doctype][name]
	if !ok {
		return nil, ErrNotFound
	}
	return doc.Clone(), nil
}

func (r *fakeRepo) List(_ context.Context, doctype string, filter bson.M) ([]models.Document, error) {
	var out []models.Document
	for _, doc := range r.docs[doctype] {
		if owner, ok := filter[models.KeyOwner]; ok && doc.Owner() != owner {
			continue
		}
		out = append(out, doc.Clone())
	}
	return out, nil
}

func (r *fakeRepo) Insert(_ context.Context, doctype string, doc models.Document) error {
	r.put(doctype, doc)
	return nil
}

func (r *fakeRepo) Update(_ context.Context, doctype, name string, doc models.Document) error {
	if _, ok := r.docs[doctype][name]; !ok {
		return ErrNotFound
	}
	r.docs[doctype][name] = doc.Clone()
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, doctype, name string) error {
	if _, ok := r.docs[doctype][name]; !ok {
		return ErrNotFound
	}
	delete(r.docs[doctype], name)
	delete(r.shares, r.key(doctype, name))
	return nil
}

func (r *fakeRepo) SetField(_ context.Context, doctype, name, field string, value interface{}) error {
	doc, ok := r.docs[doctype][name]
	if !ok {
		return ErrNotFound
	}
	doc[field] = value
	return nil
}

func (r *fakeRepo) GetShares(_ context.Context, doctype, name string) ([]permission.DocShare, error) {
	return r.shares[r.key(doctype, name)], nil
}

func (r *fakeRepo) AddShare(_ context.Context, doctype, name string, share permission.DocShare) error {
	k := r.key(doctype, name)
	r.shares[k] = append(r.shares[k], share)
	return nil
}

type fakePublisher struct {
	events []string
}

func (p *fakePublisher) PublishDocEvent(doctype, name, event string) {
	p.events = append(p.events, doctype+":"+event)
}

type fakeMeta struct {
	doctypes map[string]*meta.DocType
}

func (m *fakeMeta) GetDocType(_ context.Context, name string) (*meta.DocType, error) {
	dt, ok := m.doctypes[name]
	if !ok {
		return nil, meta.ErrNotFound
	}
	return dt, nil
}

func (m *fakeMeta) ListDocTypes(context.Context) ([]meta.DocType, error) {
	var out []meta.DocType
	for _, dt := range m.doctypes {
		out = append(out, *dt)
	}
	return out, nil
}

func (m *fakeMeta) InvalidateCache() {}

type fakeWorkflows struct {
	byDocType map[string]*workflow.Workflow
}

func (w *fakeWorkflows) FindActiveByDocType(_ context.Context, doctype string) (*workflow.Workflow, error) {
	if w.byDocType == nil {
		return nil, nil
	}
	return w.byDocType[doctype], nil
}

func (w *fakeWorkflows) Upsert(context.Context, *workflow.Workflow) error { return nil }

type allowAllConditions struct{}

func (allowAllConditions) Allowed(string, models.Document) bool { return true }
