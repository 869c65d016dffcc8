package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tenderdesk/internal/config"
	"tenderdesk/internal/lib/sl"
)

const (
	wizardStatesCollection = "wizard_states"
	prefsCollection        = "prefs"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
	expire        time.Duration
	log           *slog.Logger
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
		expire:        time.Duration(conf.Mongo.ExpiredDays) * 24 * time.Hour,
		log:           logger.With(sl.Module("mongodb")),
	}
	return client, nil
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find error: %w", err)
}

// EnsureIndexes creates the lookup indexes and lets abandoned wizard
// snapshots expire.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	db := connection.Database(m.database)

	states := []mongo.IndexModel{
		{Keys: bson.D{{"id", 1}}, Options: options.Index().SetUnique(true)},
	}
	if m.expire > 0 {
		states = append(states, mongo.IndexModel{
			Keys:    bson.D{{"updated_at", 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(m.expire.Seconds())),
		})
	}
	if _, err = db.Collection(wizardStatesCollection).Indexes().CreateMany(ctx, states); err != nil {
		return fmt.Errorf("wizard state indexes: %w", err)
	}

	prefs := mongo.IndexModel{
		Keys:    bson.D{{"owner", 1}, {"key", 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err = db.Collection(prefsCollection).Indexes().CreateOne(ctx, prefs); err != nil {
		return fmt.Errorf("prefs index: %w", err)
	}

	m.log.Debug("indexes ensured", slog.Duration("expire", m.expire))
	return nil
}
