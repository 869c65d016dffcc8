package repository

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tenderdesk/internal/config"
	"tenderdesk/wizard"
)

func TestNewMongoClient(t *testing.T) {
	conf := &config.Config{}
	db, err := NewMongoClient(conf, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Nil(t, db, "disabled mongo yields no client")

	conf.Mongo.Enabled = true
	conf.Mongo.Host = "127.0.0.1"
	conf.Mongo.Port = "27017"
	conf.Mongo.Database = "tenderdesk"
	conf.Mongo.ExpiredDays = 7
	db, err = NewMongoClient(conf, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Equal(t, 7*24*time.Hour, db.expire)
}

func TestFindError(t *testing.T) {
	m := &MongoDB{}
	assert.NoError(t, m.findError(mongo.ErrNoDocuments))

	boom := errors.New("boom")
	assert.ErrorIs(t, m.findError(boom), boom)
}

// Restore feeds snapshot values back through Form.Set, so their Go types must
// survive the BSON round trip.
func TestSnapshotValuesSurviveBSON(t *testing.T) {
	snap := wizard.Snapshot{
		ID:        "s-1",
		Kind:      "tender-edit",
		Subject:   "t-9",
		Locale:    "ar",
		Step:      2,
		Completed: []bool{true, true, false},
		Touched:   []string{"title", "budget"},
		Values: map[string]any{
			"title":  "Office fit-out",
			"budget": 125000.5,
			"agree":  true,
		},
		Lifecycle: wizard.LifecycleIdle,
		UpdatedAt: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
	}

	raw, err := bson.Marshal(snap)
	require.NoError(t, err)

	var got wizard.Snapshot
	require.NoError(t, bson.Unmarshal(raw, &got))
	got.UpdatedAt = got.UpdatedAt.UTC()

	if diff := cmp.Diff(snap, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestPrefDocumentIsScopedByOwner(t *testing.T) {
	raw, err := bson.Marshal(pref{Owner: "a1b2", Key: "hide_draft_prompt", Value: true})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, "a1b2", doc["owner"])
	assert.Equal(t, "hide_draft_prompt", doc["key"])
	assert.Equal(t, true, doc["value"])
}
