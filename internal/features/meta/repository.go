package meta

import (
	"context"
	"errors"
	"time"

	"go-desk/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("doctype not found")

type MetaRepository interface {
	FindByName(ctx context.Context, name string) (*DocType, error)
	ListAll(ctx context.Context) ([]DocType, error)
	Upsert(ctx context.Context, dt *DocType) error
	EnsureIndexes(ctx context.Context) error
}

type MetaRepositoryImpl struct {
	collection *mongo.Collection
}

func NewMetaRepository(mongodb *database.MongodbDB) MetaRepository {
	return &MetaRepositoryImpl{
		collection: mongodb.DB.Collection("doctypes"),
	}
}

func (r *MetaRepositoryImpl) FindByName(ctx context.Context, name string) (*DocType, error) {
	var dt DocType
	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&dt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &dt, nil
}

func (r *MetaRepositoryImpl) ListAll(ctx context.Context) ([]DocType, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var doctypes []DocType
	if err := cursor.All(ctx, &doctypes); err != nil {
		return nil, err
	}
	return doctypes, nil
}

func (r *MetaRepositoryImpl) Upsert(ctx context.Context, dt *DocType) error {
	dt.UpdatedAt = time.Now()
	if dt.CreatedAt.IsZero() {
		dt.CreatedAt = dt.UpdatedAt
	}

	update := bson.M{"$set": dt}
	_, err := r.collection.UpdateOne(ctx, bson.M{"name": dt.Name}, update, options.Update().SetUpsert(true))
	return err
}

func (r *MetaRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"name": 1},
		Options: options.Index().SetUnique(true),
	})
	return err
}
