package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Store struct {
	client     *minio.Client
	bucketName string
	region     string
	prefix     string
}

// New buat koneksi MinIO dan pastikan bucket ada.
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// WithPrefix namespaces every key, e.g. per environment.
func (s *Store) WithPrefix(prefix string) *Store {
	cp := *s
	cp.prefix = strings.Trim(prefix, "/")
	return &cp
}

func (s *Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Put implementasi reports.Archive: simpan report JSON.
func (s *Store) Put(ctx context.Context, key string, body []byte) (string, error) {
	name := s.objectKey(key)
	_, err := s.client.PutObject(ctx, s.bucketName, name, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType(key)})
	if err != nil {
		return "", err
	}
	return s.URL(name), nil
}

// Remove deletes an archived object.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucketName, s.objectKey(key), minio.RemoveObjectOptions{})
}

// URL publik (jika bucket public), kalau private harus generate presigned URL
func (s *Store) URL(objectName string) string {
	u := s.client.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", u.Scheme, u.Host, s.bucketName, objectName)
}

// Check implements a health probe on the bucket.
func (s *Store) Check(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s missing", s.bucketName)
	}
	return nil
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".json":
		return "application/json"
	case ".html":
		return "text/html"
	}
	return "application/octet-stream"
}
