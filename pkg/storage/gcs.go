package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
)

// GCSStore writes documents to a Cloud Storage bucket.
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore connects with application default credentials.
func NewGCSStore(ctx context.Context, bucket string) (s *GCSStore, err error) {
	if bucket == "" {
		err = errors.New("bucket must be provided for cloud storage")
		return s, err
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		err = errors.Wrap(err, "failed to create storage client")
		return s, err
	}

	s = &GCSStore{client: client, bucket: bucket}
	return s, err
}

// Save uploads data only if no object exists under name yet.
func (s *GCSStore) Save(ctx context.Context, name string, data []byte, contentType string) (location string, err error) {
	clean, err := cleanName(name)
	if err != nil {
		return location, err
	}

	writer := s.client.Bucket(s.bucket).Object(clean).If(gcs.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	_, err = io.Copy(writer, bytes.NewReader(data))
	if err != nil {
		_ = writer.Close()
		err = classify(err, clean)
		return location, err
	}

	err = writer.Close()
	if err != nil {
		err = classify(err, clean)
		return location, err
	}

	location = "gs://" + s.bucket + "/" + clean
	return location, err
}

// Close releases the underlying client.
func (s *GCSStore) Close() (err error) {
	err = s.client.Close()
	return err
}

// classify maps a failed precondition to ErrExists.
func classify(err error, name string) (out error) {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
		out = errors.Wrapf(ErrExists, "gs object %s", name)
		return out
	}
	out = errors.Wrapf(err, "failed to write to cloud storage: %s", name)
	return out
}
