package document

import (
	"context"

	"go-desk/internal/common/models"
	"go-desk/internal/database"
	"go-desk/internal/features/permission"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DocumentRepository interface {
	Get(ctx context.Context, doctype, name string) (models.Document, error)
	List(ctx context.Context, doctype string, filter bson.M) ([]models.Document, error)
	Insert(ctx context.Context, doctype string, doc models.Document) error
	Update(ctx context.Context, doctype, name string, doc models.Document) error
	Delete(ctx context.Context, doctype, name string) error
	SetField(ctx context.Context, doctype, name, field string, value interface{}) error
	GetShares(ctx context.Context, doctype, name string) ([]permission.DocShare, error)
	AddShare(ctx context.Context, doctype, name string, share permission.DocShare) error
}

type DocumentRepositoryImpl struct {
	db *mongo.Database
}

func NewDocumentRepository(mongodb *database.MongodbDB) DocumentRepository {
	return &DocumentRepositoryImpl{db: mongodb.DB}
}

// collection maps a doctype to its Mongo collection. Every doctype
// gets its own collection, prefixed so metadata collections cannot
// collide with document data.
func (r *DocumentRepositoryImpl) collection(doctype string) *mongo.Collection {
	return r.db.Collection("tab_" + doctype)
}

func (r *DocumentRepositoryImpl) shares() *mongo.Collection {
	return r.db.Collection("docshares")
}

// normalizeDoc converts a decoded BSON document into the plain Go
// shapes the evaluators and the validator type-switch on. The driver
// decodes nested documents as bson.D/bson.M and arrays as bson.A,
// which are distinct named types that would otherwise slip past the
// engine's map and slice cases.
func normalizeDoc(raw bson.M) models.Document {
	doc := make(models.Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		doc[k] = normalizeValue(v)
	}
	return doc
}

func normalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = normalizeValue(e)
		}
		return out
	case bson.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = normalizeValue(e.Value)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = normalizeValue(e)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}

func (r *DocumentRepositoryImpl) Get(ctx context.Context, doctype, name string) (models.Document, error) {
	var raw bson.M
	err := r.collection(doctype).FindOne(ctx, bson.M{models.KeyName: name}).Decode(&raw)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return normalizeDoc(raw), nil
}

func (r *DocumentRepositoryImpl) List(ctx context.Context, doctype string, filter bson.M) ([]models.Document, error) {
	if filter == nil {
		filter = bson.M{}
	}

	cursor, err := r.collection(doctype).Find(ctx, filter, options.Find().SetSort(bson.M{models.KeyName: 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []models.Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		docs = append(docs, normalizeDoc(raw))
	}
	return docs, cursor.Err()
}

func (r *DocumentRepositoryImpl) Insert(ctx context.Context, doctype string, doc models.Document) error {
	_, err := r.collection(doctype).InsertOne(ctx, bson.M(doc))
	return err
}

func (r *DocumentRepositoryImpl) Update(ctx context.Context, doctype, name string, doc models.Document) error {
	res, err := r.collection(doctype).ReplaceOne(ctx, bson.M{models.KeyName: name}, bson.M(doc))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, doctype, name string) error {
	res, err := r.collection(doctype).DeleteOne(ctx, bson.M{models.KeyName: name})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	// Shares die with the document.
	_, err = r.shares().DeleteMany(ctx, bson.M{"doctype": doctype, "docname": name})
	return err
}

func (r *DocumentRepositoryImpl) SetField(ctx context.Context, doctype, name, field string, value interface{}) error {
	res, err := r.collection(doctype).UpdateOne(ctx,
		bson.M{models.KeyName: name},
		bson.M{"$set": bson.M{field: value}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DocumentRepositoryImpl) GetShares(ctx context.Context, doctype, name string) ([]permission.DocShare, error) {
	cursor, err := r.shares().Find(ctx, bson.M{"doctype": doctype, "docname": name})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var shares []permission.DocShare
	for cursor.Next(ctx) {
		var share permission.DocShare
		if err := cursor.Decode(&share); err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	return shares, cursor.Err()
}

func (r *DocumentRepositoryImpl) AddShare(ctx context.Context, doctype, name string, share permission.DocShare) error {
	filter := bson.M{"doctype": doctype, "docname": name, "user": share.User}
	update := bson.M{"$set": bson.M{
		"doctype": doctype,
		"docname": name,
		"user":    share.User,
		"read":    share.Read,
		"write":   share.Write,
		"submit":  share.Submit,
		"share":   share.Share,
	}}
	_, err := r.shares().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
