// Package archive uploads CSV export snapshots to S3.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/careconnect/intake/internal/config"
	"github.com/careconnect/intake/internal/domain"
	"github.com/careconnect/intake/internal/render"
)

const keyTimeLayout = "20060102T150405Z"

// ObjectPutter is the subset of the S3 client used here.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Snapshot describes one uploaded export.
type Snapshot struct {
	Bucket  string `json:"bucket"`
	Key     string `json:"key"`
	Records int    `json:"records"`
	Bytes   int    `json:"bytes"`
}

// S3Archiver writes exports under <prefix>/<table>/<timestamp>-<uuid>.csv.
type S3Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
	newID  func() string
}

// NewS3Client builds an S3 client from the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg config.ArchiveConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// NewS3Archiver creates an archiver writing to cfg.Bucket.
func NewS3Archiver(client ObjectPutter, cfg config.ArchiveConfig) *S3Archiver {
	return &S3Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Archive renders recs as the CSV export for schema and uploads it.
func (a *S3Archiver) Archive(ctx context.Context, schema domain.Schema, recs []domain.Record) (Snapshot, error) {
	body, err := render.CSV(schema, recs)
	if err != nil {
		return Snapshot{}, fmt.Errorf("render %s: %w", schema.Table, err)
	}

	key := a.key(schema.Table)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(render.CSVContentType),
		Metadata: map[string]string{
			"table":   schema.Table,
			"records": fmt.Sprintf("%d", len(recs)),
		},
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return Snapshot{Bucket: a.bucket, Key: key, Records: len(recs), Bytes: len(body)}, nil
}

func (a *S3Archiver) key(table string) string {
	name := fmt.Sprintf("%s-%s.csv", a.now().UTC().Format(keyTimeLayout), a.newID())
	return path.Join(a.prefix, table, name)
}
