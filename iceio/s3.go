package iceio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func init() {
	RegisterScheme("s3", NewS3FileIO)
	RegisterScheme("s3a", NewS3FileIO)
	RegisterScheme("s3n", NewS3FileIO)
}

// S3FileIO implements FileIO against an S3-compatible object store.
// Credentials and endpoint overrides come from the properties map
// passed at construction (region, profile, static keys and
// endpoint override); role assumption is not configured here.
type S3FileIO struct {
	client *s3.Client
	signer *signer
}

// NewS3FileIO builds an S3-backed FileIO from table/catalog
// properties. Recognized keys: "s3.region", "s3.endpoint",
// "s3.access-key-id", "s3.secret-access-key", "s3.session-token",
// "s3.profile", "s3.signer" (set to "tabular" to enable the
// sign-request hook), "uri" (the catalog base URI the signer hook
// POSTs against) and "token" (the bearer token it sends).
func NewS3FileIO(properties map[string]string) (FileIO, error) {
	ctx := context.Background()
	var opts []func(*awsconfig.LoadOptions) error

	if region := properties["s3.region"]; region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if profile := properties["s3.profile"]; profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	if ak, sk := properties["s3.access-key-id"], properties["s3.secret-access-key"]; ak != "" && sk != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(ak, sk, properties["s3.session-token"]),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("iceio: load AWS config: %w", err)
	}

	var sg *signer
	if strings.EqualFold(properties["s3.signer"], "tabular") {
		sg = newSigner(properties["uri"], properties["token"])
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint := properties["s3.endpoint"]; endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		if sg != nil {
			o.APIOptions = append(o.APIOptions, sg.middleware)
		}
	})

	return &S3FileIO{client: client, signer: sg}, nil
}

func parseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("iceio: invalid s3 uri %q: %w", uri, err)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

func (s *S3FileIO) NewInput(ctx context.Context, uri string) (InputStream, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("iceio: get %q: %w", uri, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("iceio: read %q: %w", uri, err)
	}
	return &memStream{r: bytes.NewReader(data)}, nil
}

func (s *S3FileIO) NewOutput(ctx context.Context, uri string) (OutputStream, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}
	return &s3Output{ctx: ctx, client: s.client, bucket: bucket, key: key}, nil
}

func (s *S3FileIO) Delete(ctx context.Context, uri string) error {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}); err != nil {
		return fmt.Errorf("iceio: delete %q: %w", uri, err)
	}
	return nil
}

func (s *S3FileIO) Exists(ctx context.Context, uri string) (bool, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		if strings.Contains(err.Error(), "NotFound") {
			return false, nil
		}
		return false, fmt.Errorf("iceio: head %q: %w", uri, err)
	}
	return true, nil
}

func (s *S3FileIO) Len(ctx context.Context, uri string) (int64, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return 0, err
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return 0, fmt.Errorf("iceio: head %q: %w", uri, err)
	}
	if out.ContentLength == nil {
		return 0, nil
	}
	return *out.ContentLength, nil
}

type memStream struct {
	r   *bytes.Reader
}

func (m *memStream) Read(p []byte) (int, error)              { return m.r.Read(p) }
func (m *memStream) Close() error                             { return nil }
func (m *memStream) Seek(offset int64, whence int) (int64, error) { return m.r.Seek(offset, whence) }
func (m *memStream) Tell() (int64, error)                     { return m.r.Seek(0, io.SeekCurrent) }

type s3Output struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string
	buf    bytes.Buffer
}

func (o *s3Output) Write(p []byte) (int, error) { return o.buf.Write(p) }

func (o *s3Output) Close() error {
	_, err := o.client.PutObject(o.ctx, &s3.PutObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
		Body:   bytes.NewReader(o.buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("iceio: put s3://%s/%s: %w", o.bucket, o.key, err)
	}
	return nil
}
