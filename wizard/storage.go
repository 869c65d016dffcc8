package wizard

import (
	"context"
)

// StateRepository defines the database operations for wizard snapshots.
type StateRepository interface {
	SaveWizardState(ctx context.Context, snap *Snapshot) error
	LoadWizardState(ctx context.Context, id string) (*Snapshot, error)
	DeleteWizardState(ctx context.Context, id string) error
}

// MongoStorage is an adapter that wraps the database operations.
type MongoStorage struct {
	repo StateRepository
}

func NewMongoStorage(repo StateRepository) *MongoStorage {
	return &MongoStorage{repo: repo}
}

func (s *MongoStorage) Save(ctx context.Context, snap Snapshot) error {
	return s.repo.SaveWizardState(ctx, &snap)
}

func (s *MongoStorage) Load(ctx context.Context, id string) (*Snapshot, error) {
	return s.repo.LoadWizardState(ctx, id)
}

func (s *MongoStorage) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteWizardState(ctx, id)
}
