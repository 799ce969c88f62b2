package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/conduit/internal/common"
	sc "github.com/dmitrijs2005/conduit/internal/server/config"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// AvatarUpload is a presigned PUT for a new avatar image. Key becomes the
// profile image reference once the client has uploaded the object.
type AvatarUpload struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

// AvatarService hands out presigned upload URLs for profile images.
type AvatarService struct {
	config *sc.Config
	users  *AuthService
	now    func() time.Time
}

func NewAvatarService(config *sc.Config, users *AuthService) *AvatarService {
	return &AvatarService{config: config, users: users, now: time.Now}
}

func avatarKey(userID string, d time.Time) string {
	return fmt.Sprintf("avatars/%s/%d/%02d/%v", userID, d.Year(), d.Month(), uuid.New())
}

func (s *AvatarService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// RequestUpload presigns a PUT for a new avatar of userID.
func (s *AvatarService) RequestUpload(ctx context.Context, userID, contentType string) (*AvatarUpload, error) {
	if _, err := s.users.Me(ctx, userID); err != nil {
		return nil, err
	}

	switch contentType {
	case "image/png", "image/jpeg", "image/gif", "image/webp":
	default:
		return nil, common.NewValidationError("content_type", "must be an image type")
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, common.Unavailable(oops.Code("S3_CONFIG_FAILED").Wrap(err))
	}

	bucket := s.config.S3Bucket
	key := avatarKey(userID, s.now())
	ttl := s.config.S3PresignTTL

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, common.Unavailable(oops.Code("S3_PRESIGN_FAILED").With("key", key).Wrap(err))
	}

	return &AvatarUpload{Key: key, URL: req.URL, ExpiresAt: s.now().Add(ttl)}, nil
}
