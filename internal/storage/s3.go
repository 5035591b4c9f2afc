// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client for
// article thumbnails. It wraps the AWS SDK v2 and is configured for
// path-style access (required by CEPH/Hetzner and MinIO).
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// ThumbnailPrefix is the key prefix for article thumbnails.
const ThumbnailPrefix = "thumbnails/"

// Client wraps an S3 client bound to a single public bucket.
type Client struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string // optional CDN/direct URL for public files
}

// New creates an S3 storage client with path-style addressing. Returns
// (nil, nil) if endpoint or credentials are empty, allowing the app to
// start without storage.
func New(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	endpoint = strings.TrimRight(endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// NewThumbnailKey returns a fresh object key for a JPEG thumbnail.
func NewThumbnailKey() string {
	return ThumbnailPrefix + uuid.NewString() + ".jpg"
}

// Upload stores a public-read object.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Delete removes an object.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// FileURL returns the public URL for key. Uses the configured public URL
// if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}

// KeyFromURL extracts the object key from a URL built by FileURL.
// Returns ("", false) if the URL does not belong to this storage.
func (c *Client) KeyFromURL(rawURL string) (string, bool) {
	if c.publicURL != "" {
		if key, ok := strings.CutPrefix(rawURL, c.publicURL+"/"); ok {
			return key, true
		}
	}
	if key, ok := strings.CutPrefix(rawURL, c.endpoint+"/"+c.bucket+"/"); ok {
		return key, true
	}
	return "", false
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
