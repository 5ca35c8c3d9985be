// Package mongo implements the MongoDB sink: each record is inserted as a
// document into a caller-supplied collection.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/croftbyte/go-fanlog/handler"
	"github.com/croftbyte/go-fanlog/record"
)

// insertTimeout bounds each insert.
const insertTimeout = 5 * time.Second

// Inserter is the slice of a Mongo collection the sink uses.
type Inserter interface {
	InsertOne(ctx context.Context, document any) error
}

type collectionInserter struct {
	coll *mongo.Collection
}

func (c collectionInserter) InsertOne(ctx context.Context, document any) error {
	_, err := c.coll.InsertOne(ctx, document)
	return err
}

// Handler inserts records into a collection. Insert failures are swallowed
// like the other brokered sinks.
type Handler struct {
	*handler.Base
	inserter Inserter
}

var _ handler.Streamable = (*Handler)(nil)

// New creates the sink over an already-connected collection.
func New(coll *mongo.Collection, minLevel record.Level) (*Handler, error) {
	if coll == nil {
		return nil, handler.NewConstructionError("mongo", "nil collection", nil)
	}
	return NewWithInserter(collectionInserter{coll: coll}, minLevel)
}

// NewWithInserter creates the sink over any Inserter implementation.
func NewWithInserter(inserter Inserter, minLevel record.Level) (*Handler, error) {
	if inserter == nil {
		return nil, handler.NewConstructionError("mongo", "nil inserter", nil)
	}
	return &Handler{
		Base:     handler.NewBase("mongo", minLevel),
		inserter: inserter,
	}, nil
}

// Handle inserts the record as a document: context, level, message, the
// root fields, the data map, and a created_at timestamp.
func (h *Handler) Handle(level record.Level, message string, callContext map[string]any) (string, bool, error) {
	rec, payload, ok, err := h.Prepare(level, message, callContext)
	if !ok || err != nil {
		return "", false, err
	}
	if handled, delivered := h.StreamOverride(payload); handled {
		return payload, delivered, nil
	}

	doc := bson.M{
		"context":    rec.Context,
		"level":      rec.Level.String(),
		"message":    rec.Message,
		"data":       rec.Data,
		"created_at": time.Now().UTC(),
	}
	for _, f := range rec.Fields {
		doc[f.Key] = f.Value
	}

	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()
	if err := h.inserter.InsertOne(ctx, doc); err != nil {
		return "", false, nil
	}
	return payload, true, nil
}
