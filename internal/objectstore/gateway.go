// Package objectstore is the Object Store Gateway: a thin wrapper over an
// S3-compatible endpoint providing the put/head/copy/list/delete contract
// of spec §4.6. No example repo in the pack wires an S3 client directly;
// minio-go/v7 is adopted as the standard Go client for S3-compatible
// endpoints (including MinIO itself, which S3_ENDPOINT in the
// configuration surface implies), following the teacher's pkg/db and
// pkg/artifact_manager idiom of fmt.Errorf-wrapped methods on a small
// struct wrapping the third-party client.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// smallObjectThreshold is the cutover point between put_small and
// put_streaming, matching spec §4.6's "~5 MiB" default chunk size used as
// the streaming threshold too.
const smallObjectThreshold = 5 * 1024 * 1024

// Gateway wraps a minio.Client bound to one bucket.
type Gateway struct {
	client *minio.Client
	bucket string
	prefix string
}

// New builds a Gateway against an S3-compatible endpoint.
func New(endpoint, accessKey, secretKey, bucket, prefix string, useSSL bool) (*Gateway, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("building object store client for %q: %w", endpoint, err)
	}
	return &Gateway{client: client, bucket: bucket, prefix: prefix}, nil
}

func (g *Gateway) fullKey(key string) string {
	if g.prefix == "" {
		return key
	}
	return g.prefix + "/" + key
}

// PutBytes uploads a small object in one shot. Zero-byte payloads are
// rejected at the pipeline boundary per spec §4.6's selection rule.
func (g *Gateway) PutBytes(ctx context.Context, key string, data []byte, contentType string) error {
	if len(data) == 0 {
		return fmt.Errorf("putting %q: refusing to upload a zero-byte object", key)
	}
	if len(data) > smallObjectThreshold {
		return g.PutStreaming(ctx, key, newByteReader(data), int64(len(data)), contentType)
	}
	_, err := g.client.PutObject(ctx, g.bucket, g.fullKey(key), newByteReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("putting small object %q: %w", key, err)
	}
	return nil
}

// PutStreaming uploads size bytes from r using minio-go's own multipart
// logic (it chooses part size and parallelism internally once given a
// size hint), satisfying spec §4.6's multipart-with-bounded-parallelism
// and per-part-retry requirements without hand-rolled part bookkeeping.
func (g *Gateway) PutStreaming(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if size <= 0 {
		return fmt.Errorf("putting %q: refusing to upload a zero-byte object", key)
	}
	_, err := g.client.PutObject(ctx, g.bucket, g.fullKey(key), r, size, minio.PutObjectOptions{
		ContentType: contentType,
		PartSize:    smallObjectThreshold,
	})
	if err != nil {
		return fmt.Errorf("streaming object %q: %w", key, err)
	}
	return nil
}

// Copy performs a server-side copy; no bytes transit through the caller.
func (g *Gateway) Copy(ctx context.Context, srcKey, dstKey string) error {
	src := minio.CopySrcOptions{Bucket: g.bucket, Object: g.fullKey(srcKey)}
	dst := minio.CopyDestOptions{Bucket: g.bucket, Object: g.fullKey(dstKey)}
	if _, err := g.client.CopyObject(ctx, dst, src); err != nil {
		return fmt.Errorf("copying %q to %q: %w", srcKey, dstKey, err)
	}
	return nil
}

// HeadResult is the result of a Head check.
type HeadResult struct {
	Exists      bool
	Size        int64
	ContentType string
}

// Head checks whether an object exists and returns its size/content-type.
func (g *Gateway) Head(ctx context.Context, key string) (HeadResult, error) {
	info, err := g.client.StatObject(ctx, g.bucket, g.fullKey(key), minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NotFound" {
			return HeadResult{}, nil
		}
		return HeadResult{}, fmt.Errorf("checking %q: %w", key, err)
	}
	return HeadResult{Exists: true, Size: info.Size, ContentType: info.ContentType}, nil
}

// List returns object keys under prefix, stripped of the gateway's own
// namespace prefix so each entry round-trips back through Delete/Head/Copy
// unchanged.
func (g *Gateway) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range g.client.ListObjects(ctx, g.bucket, minio.ListObjectsOptions{Prefix: g.fullKey(prefix), Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing prefix %q: %w", prefix, obj.Err)
		}
		key := obj.Key
		if g.prefix != "" {
			key = strings.TrimPrefix(key, g.prefix+"/")
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Delete removes an object.
func (g *Gateway) Delete(ctx context.Context, key string) error {
	if err := g.client.RemoveObject(ctx, g.bucket, g.fullKey(key), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}
