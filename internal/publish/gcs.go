// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish mirrors the written artifact to a Cloud Storage object so
// a static site can serve it without access to the machine that ran the
// pipeline.
package publish

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// DefaultObject is the object name used when none is configured.
const DefaultObject = "citations.json"

// ObjectWriter opens a writer for one object. The writer commits on Close.
type ObjectWriter interface {
	NewWriter(ctx context.Context, bucket, object string) io.WriteCloser
}

// GCS uploads artifacts to one bucket object, replacing it each time.
type GCS struct {
	bucket string
	object string
	w      ObjectWriter
}

// NewGCS returns a publisher writing to gs://bucket/object through w.
func NewGCS(w ObjectWriter, bucket, object string) (*GCS, error) {
	if bucket == "" {
		return nil, fmt.Errorf("publish bucket is required")
	}
	if object == "" {
		object = DefaultObject
	}
	return &GCS{bucket: bucket, object: object, w: w}, nil
}

// URI returns the gs:// location of the published object.
func (g *GCS) URI() string {
	return "gs://" + g.bucket + "/" + g.object
}

// Publish uploads data, replacing the object.
func (g *GCS) Publish(ctx context.Context, data []byte) error {
	wc := g.w.NewWriter(ctx, g.bucket, g.object)
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write to %s: %w", g.URI(), err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", g.URI(), err)
	}
	return nil
}

// StorageWriter adapts a *storage.Client to ObjectWriter.
type StorageWriter struct {
	Client *storage.Client
}

// NewWriter opens an object writer with JSON content metadata.
func (s StorageWriter) NewWriter(ctx context.Context, bucket, object string) io.WriteCloser {
	w := s.Client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = "application/json; charset=utf-8"
	w.CacheControl = "public, max-age=300"
	return w
}

// NewStorageClient creates a Cloud Storage client from ambient credentials.
func NewStorageClient(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}
