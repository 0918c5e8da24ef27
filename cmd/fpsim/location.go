package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hupe1980/fpsim/blobstore"
	"github.com/hupe1980/fpsim/blobstore/minio"
	"github.com/hupe1980/fpsim/blobstore/s3"
)

// location is a parsed file argument: a local path, s3://bucket/key or
// minio://bucket/key.
type location struct {
	scheme string // "file", "s3" or "minio"
	bucket string
	key    string
}

func parseLocation(s string) (location, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok {
		return location{scheme: "file", key: s}, nil
	}
	switch scheme {
	case "file":
		return location{scheme: "file", key: rest}, nil
	case "s3", "minio":
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return location{}, fmt.Errorf("location %q: want %s://bucket/key", s, scheme)
		}
		return location{scheme: scheme, bucket: bucket, key: key}, nil
	default:
		return location{}, fmt.Errorf("location %q: unsupported scheme %q", s, scheme)
	}
}

// name is the file name used to pick the format.
func (l location) name() string { return l.key }

// store returns the blob store holding l and the blob name within it.
func (c *Config) store(ctx context.Context, l location) (blobstore.BlobStore, string, error) {
	switch l.scheme {
	case "s3":
		var opts []s3.Option
		if c.S3.Region != "" {
			opts = append(opts, s3.WithRegion(c.S3.Region))
		}
		if c.S3.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(c.S3.Endpoint))
		}
		st, err := s3.New(ctx, l.bucket, opts...)
		return st, l.key, err
	case "minio":
		if c.MinIO.Endpoint == "" {
			return nil, "", fmt.Errorf("minio location %s/%s: no minio.endpoint configured", l.bucket, l.key)
		}
		st, err := minio.Dial(minio.Config{
			Endpoint:  c.MinIO.Endpoint,
			AccessKey: c.MinIO.AccessKey,
			SecretKey: c.MinIO.SecretKey,
			Secure:    c.MinIO.Secure,
			Region:    c.MinIO.Region,
		}, l.bucket, "")
		return st, l.key, err
	default:
		return blobstore.NewLocalStore(filepath.Dir(l.key)), filepath.Base(l.key), nil
	}
}

func (c *Config) openBlob(ctx context.Context, l location) (blobstore.Blob, error) {
	st, name, err := c.store(ctx, l)
	if err != nil {
		return nil, err
	}
	return st.Open(ctx, name)
}
