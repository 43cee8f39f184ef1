// Package archive mirrors repository documents into MongoDB.
//
// The repository's search API serves the live content; the archive
// keeps a queryable local copy for analytics and offline work. Records
// carry both the decoded document body (for mongo-side queries) and the
// original raw payload (so a fetched record re-parses losslessly).
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tidemarkhq/tidemark-go/pkg/document"
)

const connectTimeout = 10 * time.Second

// Archive is a document mirror backed by one mongo collection.
type Archive struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to mongo and binds the archive to db/collection. The
// connection is verified with a ping before Open returns.
func Open(ctx context.Context, uri, db, collection string) (*Archive, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Archive{
		client: client,
		coll:   client.Database(db).Collection(collection),
	}, nil
}

// record is the stored shape of one document.
type record struct {
	ID       string   `bson:"_id"`
	Type     string   `bson:"type"`
	Tags     []string `bson:"tags"`
	Slug     string   `bson:"slug"`
	Body     bson.M   `bson:"body"`
	Raw      string   `bson:"raw"`
	SyncedAt int64    `bson:"synced_at"`
}

// newRecord converts a parsed document into its stored shape.
func newRecord(doc *document.Document, now time.Time) (record, error) {
	var body bson.M
	if err := bson.UnmarshalExtJSON(doc.Raw, false, &body); err != nil {
		return record{}, fmt.Errorf("convert document %s: %w", doc.ID, err)
	}
	return record{
		ID:       doc.ID,
		Type:     doc.Type,
		Tags:     doc.Tags,
		Slug:     doc.Slug(),
		Body:     body,
		Raw:      string(doc.Raw),
		SyncedAt: now.UnixMilli(),
	}, nil
}

// Put upserts the document, keyed by its id.
func (a *Archive) Put(ctx context.Context, doc *document.Document) error {
	rec, err := newRecord(doc, time.Now())
	if err != nil {
		return err
	}
	_, err = a.coll.ReplaceOne(ctx,
		bson.M{"_id": rec.ID},
		rec,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert document %s: %w", doc.ID, err)
	}
	return nil
}

// Get fetches an archived document by id. Reports (nil, nil) when the
// id is not archived.
func (a *Archive) Get(ctx context.Context, id string) (*document.Document, error) {
	var rec record
	err := a.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch document %s: %w", id, err)
	}
	return document.Parse(json.RawMessage(rec.Raw))
}

// Delete removes an archived document. Deleting an unknown id is a
// no-op.
func (a *Archive) Delete(ctx context.Context, id string) error {
	_, err := a.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// Count reports the number of archived documents.
func (a *Archive) Count(ctx context.Context) (int64, error) {
	n, err := a.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Close disconnects from mongo.
func (a *Archive) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}
