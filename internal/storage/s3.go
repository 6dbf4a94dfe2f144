// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage keeps course media on S3-compatible object storage.
// Thumbnails go to a public bucket and are served directly. Lesson videos
// go to a private bucket: instructors upload them through presigned PUT
// URLs and learners stream them through presigned GET URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

const (
	// DefaultVideoURLExpiry is how long a learner's video URL is valid.
	DefaultVideoURLExpiry = 2 * time.Hour
	// DefaultUploadURLExpiry is how long an instructor's upload URL is valid.
	DefaultUploadURLExpiry = 15 * time.Minute
)

// Config locates the buckets. Endpoint and credentials empty means
// storage is disabled.
type Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	PublicBucket  string
	PrivateBucket string
	// PublicURL is an optional CDN base for public objects.
	PublicURL string
}

// Enabled reports whether enough is configured to reach a bucket.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Client stores course media on two buckets.
type Client struct {
	s3            *s3.Client
	presigner     *s3.PresignClient
	publicBucket  string
	privateBucket string
	publicBase    string
	videoExpiry   time.Duration
	uploadExpiry  time.Duration
}

// New creates a path-style client (MinIO, Ceph, Hetzner). It returns
// (nil, nil) when cfg is not Enabled so the API can run without media.
func New(cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if cfg.PublicBucket == "" || cfg.PrivateBucket == "" {
		return nil, errors.New("storage: both public and private bucket names are required")
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})

	publicBase := strings.TrimRight(cfg.PublicURL, "/")
	if publicBase == "" {
		publicBase = endpoint + "/" + cfg.PublicBucket
	}

	return &Client{
		s3:            client,
		presigner:     s3.NewPresignClient(client),
		publicBucket:  cfg.PublicBucket,
		privateBucket: cfg.PrivateBucket,
		publicBase:    publicBase,
		videoExpiry:   DefaultVideoURLExpiry,
		uploadExpiry:  DefaultUploadURLExpiry,
	}, nil
}

// shortID is a random component that keeps a replaced object from being
// served stale by a CDN.
func shortID() string {
	return uuid.NewString()[:8]
}

// ThumbnailKey builds the public object key for a course thumbnail.
func ThumbnailKey(courseID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("courses/%s/thumbnail-%s%s", courseID, shortID(), ext)
}

// VideoKey builds the private object key for a lesson video.
func VideoKey(courseID, lessonID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("courses/%s/lessons/%s/video-%s%s", courseID, lessonID, shortID(), ext)
}

// UploadThumbnail writes a thumbnail to the public bucket and returns its
// public URL.
func (c *Client) UploadThumbnail(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.publicBucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s/%s: %w", c.publicBucket, key, err)
	}
	return c.FileURL(key), nil
}

// DeletePublic removes an object from the public bucket.
func (c *Client) DeletePublic(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.publicBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.publicBucket, key, err)
	}
	return nil
}

// FileURL returns the public URL of a public-bucket object.
func (c *Client) FileURL(key string) string {
	return c.publicBase + "/" + key
}

// ExtractKey reverses FileURL. ok is false for URLs outside this storage.
func (c *Client) ExtractKey(rawURL string) (key string, ok bool) {
	key, ok = strings.CutPrefix(rawURL, c.publicBase+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// VideoURL presigns a GET for a lesson video.
func (c *Client) VideoURL(ctx context.Context, key string) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.privateBucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.videoExpiry))
	if err != nil {
		return "", fmt.Errorf("s3 presign get %s/%s: %w", c.privateBucket, key, err)
	}
	return req.URL, nil
}

// VideoUploadURL presigns a PUT of a lesson video. The uploader must send
// the same Content-Type.
func (c *Client) VideoUploadURL(ctx context.Context, key, contentType string) (string, time.Duration, error) {
	req, err := c.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.privateBucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(c.uploadExpiry))
	if err != nil {
		return "", 0, fmt.Errorf("s3 presign put %s/%s: %w", c.privateBucket, key, err)
	}
	return req.URL, c.uploadExpiry, nil
}

// VideoExists reports whether a lesson video has been uploaded.
func (c *Client) VideoExists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.privateBucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("s3 head %s/%s: %w", c.privateBucket, key, err)
}
