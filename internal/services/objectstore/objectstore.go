// Package objectstore uploads finished renders to S3-compatible storage.
package objectstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"themereel/internal/config"
	"themereel/internal/services"
)

// Settings select the bucket and the AWS credential chain overrides.
// Empty Region and Profile fall back to the standard AWS configuration.
type Settings struct {
	Bucket       string
	Prefix       string
	Region       string
	Profile      string
	UsePathStyle bool
}

// SettingsFromConfig copies the [publish] section.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Bucket:       cfg.Publish.Bucket,
		Prefix:       cfg.Publish.Prefix,
		Region:       cfg.Publish.Region,
		Profile:      cfg.Publish.Profile,
		UsePathStyle: cfg.Publish.UsePathStyle,
	}
}

// PutObjectAPI is the subset of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads files into one bucket under an optional key prefix.
type Publisher struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// New builds a Publisher backed by the AWS SDK default configuration chain.
func New(ctx context.Context, settings Settings) (*Publisher, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if settings.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(settings.Region))
	}
	if settings.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(settings.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "load aws config", "", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = settings.UsePathStyle
	})
	return NewWithClient(client, settings)
}

// NewWithClient builds a Publisher around an existing client.
func NewWithClient(client PutObjectAPI, settings Settings) (*Publisher, error) {
	bucket := strings.TrimSpace(settings.Bucket)
	if bucket == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "init", "bucket is required", nil)
	}
	return &Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(strings.TrimSpace(settings.Prefix), "/"),
	}, nil
}

// Key returns the object key used for a local file.
func (p *Publisher) Key(localPath string) string {
	name := filepath.Base(localPath)
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Publish uploads localPath and returns its s3:// URI.
func (p *Publisher) Publish(ctx context.Context, localPath string) (string, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open upload source: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat upload source: %w", err)
	}

	key := p.Key(localPath)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(contentType(localPath)),
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "publish", "put object", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", p.bucket, key), nil
}

func contentType(localPath string) string {
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".mp4":
		return "video/mp4"
	case ".wav":
		return "audio/wav"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
