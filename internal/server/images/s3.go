package images

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/oneiromind/internal/netx"
	"github.com/google/uuid"
)

// S3RefPrefix marks image references that live in the bucket.
const S3RefPrefix = "s3://"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Config points at an S3-compatible bucket such as MinIO.
type S3Config struct {
	AccessKey    string
	SecretKey    string
	Region       string
	BaseEndpoint string
	Bucket       string
	PresignTTL   time.Duration
}

// S3Store uploads images through presigned PUT URLs and serves them through
// presigned GET URLs, so the server never streams image bytes to browsers.
type S3Store struct {
	presign    *s3.PresignClient
	bucket     string
	ttl        time.Duration
	httpClient *http.Client
	now        func() time.Time
}

func NewS3Store(ctx context.Context, c S3Config, httpClient *http.Client) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	ttl := c.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &S3Store{
		presign:    s3.NewPresignClient(client),
		bucket:     c.Bucket,
		ttl:        ttl,
		httpClient: httpClient,
		now:        time.Now,
	}, nil
}

func (s *S3Store) newKey() string {
	d := s.now().UTC()
	return fmt.Sprintf("dreams/%04d/%02d/%02d/%s.png", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Save uploads png and returns "s3://<key>".
func (s *S3Store) Save(ctx context.Context, png []byte) (string, error) {
	if len(png) == 0 {
		return "", fmt.Errorf("empty image")
	}
	key := s.newKey()

	req, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("image/png"),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}

	if err := netx.UploadToS3PresignedURL(ctx, s.httpClient, req.URL, "image/png", png); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return S3RefPrefix + key, nil
}

// Resolve returns a presigned GET URL for bucket references and any other
// reference unchanged.
func (s *S3Store) Resolve(ctx context.Context, ref string) (string, error) {
	key, ok := strings.CutPrefix(ref, S3RefPrefix)
	if !ok {
		return ref, nil
	}

	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
