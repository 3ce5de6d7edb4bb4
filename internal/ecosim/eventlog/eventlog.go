// Package eventlog records every kernel event the simulation dispatches
// to MongoDB: a thin struct around a *mongo.Collection, bson.M filters
// built per query, and cursor decoding into a plain Go struct. Unlike
// the checkpoint store, this is
// an append-only audit trail: individual cell events, not whole-grid
// snapshots, so a scenario's history can be replayed or inspected
// without reloading the full terrain each time.
package eventlog

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the Mongo collection events are written to.
const CollectionName = "ecosystem_events"

// Entry is a single dispatched kernel event, recorded for audit and
// replay. CellX/CellY are recorded rather than a packed index so the
// log survives a change in grid side length.
type Entry struct {
	Scenario  string    `bson:"scenario"`
	Year      int       `bson:"year"`
	Kind      string    `bson:"kind"`
	CellX     int       `bson:"cell_x"`
	CellY     int       `bson:"cell_y"`
	Cascaded  bool      `bson:"cascaded"`
	Timestamp time.Time `bson:"timestamp"`
}

// Log appends kernel event entries and queries them back by scenario,
// year range, or kind.
type Log struct {
	collection *mongo.Collection
}

// NewLog wraps the given database's event collection.
func NewLog(db *mongo.Database) *Log {
	return &Log{collection: db.Collection(CollectionName)}
}

// Append records a single dispatched event. Called from the driver's
// tick loop, so it must stay cheap; callers run it in a goroutine when
// logging must not stall simulation throughput.
func (l *Log) Append(ctx context.Context, entry Entry) error {
	_, err := l.collection.InsertOne(ctx, entry)
	return err
}

// AppendBatch records many events in a single round trip, for drivers
// that buffer a tick's worth of events before flushing.
func (l *Log) AppendBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]interface{}, len(entries))
	for i, e := range entries {
		docs[i] = e
	}
	_, err := l.collection.InsertMany(ctx, docs)
	return err
}

// ForScenario returns every recorded event for a scenario, oldest
// first.
func (l *Log) ForScenario(ctx context.Context, scenario string) ([]Entry, error) {
	opts := options.Find().SetSort(bson.M{"year": 1, "timestamp": 1})
	cursor, err := l.collection.Find(ctx, bson.M{"scenario": scenario}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeEntries(ctx, cursor)
}

// ForYearRange returns events for a scenario within [startYear, endYear].
func (l *Log) ForYearRange(ctx context.Context, scenario string, startYear, endYear int) ([]Entry, error) {
	filter := bson.M{
		"scenario": scenario,
		"year":     bson.M{"$gte": startYear, "$lte": endYear},
	}
	opts := options.Find().SetSort(bson.M{"year": 1, "timestamp": 1})
	cursor, err := l.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeEntries(ctx, cursor)
}

// ForKind returns every event of a given kind ("lightning", "wind", ...)
// recorded for a scenario, most recent first.
func (l *Log) ForKind(ctx context.Context, scenario, kind string, limit int) ([]Entry, error) {
	opts := options.Find().SetSort(bson.M{"year": -1, "timestamp": -1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	filter := bson.M{"scenario": scenario, "kind": kind}
	cursor, err := l.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeEntries(ctx, cursor)
}

// CountByKind tallies how many events of each kind were recorded for a
// scenario, used to summarize a completed run.
func (l *Log) CountByKind(ctx context.Context, scenario string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"scenario": scenario}}},
		{{Key: "$group", Value: bson.M{"_id": "$kind", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := l.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int64)
	for cursor.Next(ctx) {
		var row struct {
			ID    string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.ID] = row.Count
	}
	return counts, cursor.Err()
}

func decodeEntries(ctx context.Context, cursor *mongo.Cursor) ([]Entry, error) {
	var entries []Entry
	for cursor.Next(ctx) {
		var e Entry
		if err := cursor.Decode(&e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, cursor.Err()
}
