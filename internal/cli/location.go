package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// StdioPath names stdin as an input and stdout as an output.
const StdioPath = "-"

const s3Scheme = "s3://"

// S3Client moves whole objects in and out of S3.
type S3Client interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Upload(ctx context.Context, bucket, key string, body io.Reader) error
}

// managerClient is the S3Client backed by s3manager.
type managerClient struct {
	downloader *s3manager.Downloader
	uploader   *s3manager.Uploader
}

// NewS3Client builds a client from the default AWS credential chain and
// region settings.
func NewS3Client() (S3Client, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &managerClient{
		downloader: s3manager.NewDownloader(sess),
		uploader:   s3manager.NewUploader(sess),
	}, nil
}

func (c *managerClient) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	buf := aws.NewWriteAtBuffer(nil)
	_, err := c.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	return buf.Bytes(), nil
}

func (c *managerClient) Upload(ctx context.Context, bucket, key string, body io.Reader) error {
	_, err := c.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// parseS3 splits "s3://bucket/key/parts" into bucket and key.
func parseS3(loc string) (bucket, key string, ok bool, err error) {
	if !strings.HasPrefix(loc, s3Scheme) {
		return "", "", false, nil
	}
	bucket, key, _ = strings.Cut(strings.TrimPrefix(loc, s3Scheme), "/")
	if bucket == "" || key == "" {
		return "", "", true, fmt.Errorf("invalid S3 location %q: want s3://bucket/key", loc)
	}
	return bucket, key, true, nil
}

// source is an opened input.
type source struct {
	name string
	r    io.ReadCloser
}

// open resolves an input location: a local path, "-" for stdin or an S3 URL.
func (e *Env) open(ctx context.Context, loc string) (*source, error) {
	if loc == StdioPath {
		return &source{name: "stdin.csv", r: io.NopCloser(e.Stdin)}, nil
	}

	bucket, key, isS3, err := parseS3(loc)
	if err != nil {
		return nil, err
	}
	if isS3 {
		client, err := e.s3()
		if err != nil {
			return nil, err
		}
		data, err := client.Download(ctx, bucket, key)
		if err != nil {
			return nil, err
		}
		return &source{name: path.Base(key), r: io.NopCloser(bytes.NewReader(data))}, nil
	}

	f, err := os.Open(loc)
	if err != nil {
		return nil, err
	}
	return &source{name: path.Base(loc), r: f}, nil
}

// write stores data at an output location: a local path, "-" for stdout or
// an S3 URL.
func (e *Env) write(ctx context.Context, loc string, data []byte) error {
	if loc == "" || loc == StdioPath {
		_, err := e.Stdout.Write(data)
		return err
	}

	bucket, key, isS3, err := parseS3(loc)
	if err != nil {
		return err
	}
	if isS3 {
		client, err := e.s3()
		if err != nil {
			return err
		}
		return client.Upload(ctx, bucket, key, bytes.NewReader(data))
	}

	return os.WriteFile(loc, data, 0o644)
}

// s3 returns the configured client, creating the default one on first use.
func (e *Env) s3() (S3Client, error) {
	if e.S3 != nil {
		return e.S3, nil
	}
	client, err := NewS3Client()
	if err != nil {
		return nil, err
	}
	e.S3 = client
	return client, nil
}
