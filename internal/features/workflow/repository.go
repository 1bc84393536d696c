package workflow

import (
	"context"
	"errors"

	"go-desk/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type WorkflowRepository interface {
	FindActiveByDocType(ctx context.Context, doctype string) (*Workflow, error)
	Upsert(ctx context.Context, wf *Workflow) error
}

type WorkflowRepositoryImpl struct {
	collection *mongo.Collection
}

func NewWorkflowRepository(mongodb *database.MongodbDB) WorkflowRepository {
	return &WorkflowRepositoryImpl{
		collection: mongodb.DB.Collection("workflows"),
	}
}

// FindActiveByDocType returns the active workflow for a doctype, or
// nil when the doctype has none (most don't).
func (r *WorkflowRepositoryImpl) FindActiveByDocType(ctx context.Context, doctype string) (*Workflow, error) {
	var wf Workflow
	err := r.collection.FindOne(ctx, bson.M{"doctype": doctype, "is_active": true}).Decode(&wf)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &wf, nil
}

func (r *WorkflowRepositoryImpl) Upsert(ctx context.Context, wf *Workflow) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"name": wf.Name},
		bson.M{"$set": wf},
		options.Update().SetUpsert(true))
	return err
}
