package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type pref struct {
	Owner     string    `bson:"owner"`
	Key       string    `bson:"key"`
	Value     bool      `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// GetPref returns a flag stored for owner; a missing key reads as false.
func (m *MongoDB) GetPref(ctx context.Context, owner, key string) (bool, error) {
	connection, err := m.connect()
	if err != nil {
		return false, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(prefsCollection)

	var p pref
	err = collection.FindOne(ctx, bson.D{{"owner", owner}, {"key", key}}).Decode(&p)
	if err != nil {
		return false, m.findError(err)
	}
	return p.Value, nil
}

func (m *MongoDB) SetPref(ctx context.Context, owner, key string, value bool) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(prefsCollection)

	filter := bson.D{{"owner", owner}, {"key", key}}
	update := bson.D{{"$set", pref{Owner: owner, Key: key, Value: value, UpdatedAt: time.Now()}}}
	opts := options.Update().SetUpsert(true)

	_, err = collection.UpdateOne(ctx, filter, update, opts)
	return err
}
