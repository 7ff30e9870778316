// Package archive writes completed aggregate results to an S3-compatible
// bucket (Cloudflare R2) as dated JSON snapshots. It is an optional sink:
// when no R2 endpoint is configured the aggregator runs without it, and a
// failed upload never affects the served FeedResult.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kaleidonews/kaleido/internal/models"
)

// Config carries the R2 connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Archiver uploads feed snapshots to one bucket.
type Archiver struct {
	client *s3.Client
	bucket string
	now    func() time.Time
}

// New builds an Archiver against the configured R2 endpoint.
func New(ctx context.Context, cfg Config) (*Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load R2 credentials: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
	})

	return &Archiver{client: client, bucket: cfg.Bucket, now: time.Now}, nil
}

// SaveSnapshot uploads one aggregate result under a dated key
// (snapshots/YYYY/MM/DD/<unix>.json).
func (a *Archiver) SaveSnapshot(ctx context.Context, result models.FeedResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	now := a.now()
	key := fmt.Sprintf("snapshots/%s/%d.json", now.Format("2006/01/02"), now.Unix())

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload snapshot %s: %w", key, err)
	}
	return nil
}
