package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiveConfig configures the S3-backed snapshot archive.
type ArchiveConfig struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	// Prefix is prepended to every archive key. Defaults to "snapshots".
	Prefix string
}

// s3API is the slice of the S3 client the archiver uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Archiver persists exported snapshots as JSON objects in S3-compatible
// storage, one timestamped object per export plus a "latest" pointer.
type S3Archiver struct {
	client s3API
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Archiver builds an archiver over a real S3 client. Static
// credentials are used when provided (MinIO, explicit keys); otherwise the
// default credential chain applies.
func NewS3Archiver(ctx context.Context, cfg ArchiveConfig) (*S3Archiver, error) {
	var (
		awsCfg aws.Config
		err    error
	)
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKey,
				cfg.SecretKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})
	return newS3Archiver(client, cfg), nil
}

func newS3Archiver(client s3API, cfg ArchiveConfig) *S3Archiver {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "snapshots"
	}
	return &S3Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

// Archive uploads the snapshot under a UTC-timestamped key and updates the
// latest pointer. It returns the timestamped key.
func (a *S3Archiver) Archive(ctx context.Context, snap *Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := path.Join(a.prefix, a.now().UTC().Format("2006-01-02T15-04-05Z")+".json")
	for _, target := range []string{key, path.Join(a.prefix, "latest.json")} {
		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(target),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload snapshot to s3: %w", err)
		}
	}
	return key, nil
}

// Retrieve downloads and decodes an archived snapshot by key. Use
// LatestKey for the most recent archive.
func (a *S3Archiver) Retrieve(ctx context.Context, key string) (*Snapshot, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot from s3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot body: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode archived snapshot: %w", err)
	}
	return &snap, nil
}

// LatestKey returns the key of the latest-pointer object.
func (a *S3Archiver) LatestKey() string {
	return path.Join(a.prefix, "latest.json")
}
