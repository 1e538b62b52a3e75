// Package storage issues presigned S3 uploads for profile logos.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/vedran77/receptionist/internal/config"
)

var ErrUnsupportedContentType = errors.New("unsupported logo content type")

// logoExtensions lists the accepted upload types.
var logoExtensions = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// seams for tests
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig
	presignPutObject     = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// LogoUpload is a one-off upload slot for a profile logo.
type LogoUpload struct {
	UploadURL string    `json:"uploadUrl"`
	LogoURL   string    `json:"logoUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type LogoStore struct {
	presign       *s3.PresignClient
	bucket        string
	publicBaseURL string
	ttl           time.Duration
}

func NewLogoStore(ctx context.Context, cfg config.S3Config) (*LogoStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = defaultPublicBase(cfg)
	}

	return &LogoStore{
		presign:       s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(publicBase, "/"),
		ttl:           ttl,
	}, nil
}

func defaultPublicBase(cfg config.S3Config) string {
	if cfg.Endpoint != "" {
		return strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// PresignUpload returns a presigned PUT for a new logo object owned by ownerID.
func (s *LogoStore) PresignUpload(ctx context.Context, ownerID uuid.UUID, contentType string) (*LogoUpload, error) {
	ext, ok := logoExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}

	key := fmt.Sprintf("logos/%s/%s%s", ownerID, uuid.New(), ext)
	expiresAt := time.Now().Add(s.ttl)

	req, err := presignPutObject(s.presign, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("presigning logo upload: %w", err)
	}

	return &LogoUpload{
		UploadURL: req.URL,
		LogoURL:   s.publicBaseURL + "/" + (&url.URL{Path: key}).EscapedPath(),
		ExpiresAt: expiresAt,
	}, nil
}
