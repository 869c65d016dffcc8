package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tenderdesk/wizard"
)

// SaveWizardState persists a session snapshot.
func (m *MongoDB) SaveWizardState(ctx context.Context, snap *wizard.Snapshot) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(wizardStatesCollection)

	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now()
	}

	filter := bson.D{{"id", snap.ID}}
	update := bson.D{{"$set", snap}}
	opts := options.Update().SetUpsert(true)

	_, err = collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// LoadWizardState retrieves a session snapshot, nil when there is none.
func (m *MongoDB) LoadWizardState(ctx context.Context, id string) (*wizard.Snapshot, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(wizardStatesCollection)

	filter := bson.D{{"id", id}}

	var snap wizard.Snapshot
	err = collection.FindOne(ctx, filter).Decode(&snap)
	if err != nil {
		return nil, m.findError(err)
	}

	return &snap, nil
}

// DeleteWizardState removes a session snapshot.
func (m *MongoDB) DeleteWizardState(ctx context.Context, id string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(wizardStatesCollection)

	filter := bson.D{{"id", id}}

	_, err = collection.DeleteOne(ctx, filter)
	return err
}
