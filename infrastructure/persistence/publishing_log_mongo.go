package persistence

import (
	"context"

	"brand-publisher/domain/model"
	"brand-publisher/domain/repository"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

const publishingLogCollection = "publishing_logs"

// PublishingLogMongoRepository mirrors the publish audit trail into MongoDB.
type PublishingLogMongoRepository struct {
	collection *mongo.Collection
}

func NewPublishingLogMongoRepository(client *mongo.Client, database string) *PublishingLogMongoRepository {
	return &PublishingLogMongoRepository{collection: client.Database(database).Collection(publishingLogCollection)}
}

var _ repository.IPublishingLog = (*PublishingLogMongoRepository)(nil)

func (r *PublishingLogMongoRepository) CreatePublishingLog(ctx context.Context, entry *model.PublishingLogEntry) error {
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}
