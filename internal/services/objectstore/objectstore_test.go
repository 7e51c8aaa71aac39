package objectstore

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"themereel/internal/services"
	"themereel/internal/testsupport"
)

type fakeS3 struct {
	bucket, key, contentType string
	length                   int64
	body                     []byte
	err                      error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.contentType = aws.ToString(in.ContentType)
	f.length = aws.ToInt64(in.ContentLength)
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = data
	return &s3.PutObjectOutput{}, nil
}

func TestPublishUploadsUnderPrefix(t *testing.T) {
	local := filepath.Join(t.TempDir(), "theme1.mp4")
	testsupport.WriteFile(t, local, 512)

	client := &fakeS3{}
	publisher, err := NewWithClient(client, Settings{Bucket: "reels", Prefix: "/daily/"})
	if err != nil {
		t.Fatalf("NewWithClient: %v", err)
	}
	uri, err := publisher.Publish(context.Background(), local)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if uri != "s3://reels/daily/theme1.mp4" {
		t.Fatalf("unexpected uri %q", uri)
	}
	if client.bucket != "reels" || client.key != "daily/theme1.mp4" || client.contentType != "video/mp4" {
		t.Fatalf("unexpected put %#v", client)
	}
	if client.length != 512 || len(client.body) != 512 {
		t.Fatalf("expected 512 bytes, got length=%d body=%d", client.length, len(client.body))
	}
}

func TestPublishWrapsClientErrors(t *testing.T) {
	local := filepath.Join(t.TempDir(), "theme1.mp4")
	testsupport.WriteFile(t, local, 8)

	publisher, err := NewWithClient(&fakeS3{err: errors.New("access denied")}, Settings{Bucket: "reels"})
	if err != nil {
		t.Fatalf("NewWithClient: %v", err)
	}
	if _, err := publisher.Publish(context.Background(), local); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if _, err := publisher.Publish(context.Background(), filepath.Join(t.TempDir(), "absent.mp4")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewWithClientRequiresBucket(t *testing.T) {
	if _, err := NewWithClient(&fakeS3{}, Settings{Bucket: "  "}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	publisher, err := NewWithClient(&fakeS3{}, Settings{Bucket: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if key := publisher.Key("/out/a.mp4"); key != "a.mp4" {
		t.Fatalf("unexpected key without prefix: %q", key)
	}
}
