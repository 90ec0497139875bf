package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrImagesDisabled is returned when no bucket is configured
var ErrImagesDisabled = errors.New("image storage is not configured")

// ImageStore keeps meal item pictures and returns their public URL
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// R2Config holds the Cloudflare R2 bucket settings
type R2Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

// Enabled reports whether every setting needed for uploads is present
func (c R2Config) Enabled() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != "" && c.PublicBaseURL != ""
}

// R2Store uploads images to an S3-compatible bucket
type R2Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewR2Store builds the S3 client for R2. It returns ErrImagesDisabled when
// the configuration is incomplete.
func NewR2Store(ctx context.Context, cfg R2Config) (*R2Store, error) {
	if !cfg.Enabled() {
		return nil, ErrImagesDisabled
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})
	return &R2Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Put uploads body under key
func (r *R2Store) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String("public, max-age=86400"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return r.baseURL + "/" + key, nil
}

/*
This project is the backend API for the campus mess meal-selection service. Students pick their meals for each selection period within the mess quotas, and admins manage the catalog, periods and accounts.
MessAPI Copyright (C) 2025 OpenSourceDUTH
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
