package storage

import (
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore keeps objects in a MongoDB GridFS bucket, addressed by file name.
type GridFSStore struct {
	db     *mongo.Database
	bucket *gridfs.Bucket
	name   string
}

// NewGridFSStore opens the default "fs" bucket of the given database.
func NewGridFSStore(client *mongo.Client, dbName string) (*GridFSStore, error) {
	db := client.Database(dbName)
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, err
	}
	return &GridFSStore{db: db, bucket: bucket, name: options.DefaultName}, nil
}

// EnsureBucket checks the database is reachable; GridFS creates its collections on first write.
func (g *GridFSStore) EnsureBucket(ctx context.Context) error {
	return g.db.Client().Ping(ctx, nil)
}

// Put replaces any existing files with the same key.
func (g *GridFSStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := g.Delete(ctx, key); err != nil {
		return err
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	stream, err := g.bucket.OpenUploadStream(key, opts)
	if err != nil {
		return err
	}
	if _, err := io.Copy(stream, r); err != nil {
		_ = stream.Abort()
		return err
	}
	return stream.Close()
}

func (g *GridFSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	stream, err := g.bucket.OpenDownloadStreamByName(key)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Delete removes every revision stored under key.
func (g *GridFSStore) Delete(ctx context.Context, key string) error {
	cur, err := g.bucket.FindContext(ctx, bson.M{"filename": key})
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var f struct {
			ID interface{} `bson:"_id"`
		}
		if err := cur.Decode(&f); err != nil {
			return err
		}
		if err := g.bucket.DeleteContext(ctx, f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return err
		}
	}
	return cur.Err()
}

func (g *GridFSStore) Bucket() string {
	return g.name
}
