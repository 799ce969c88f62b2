package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/conduit/internal/common"
	sc "github.com/dmitrijs2005/conduit/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAvatarSvc(t *testing.T) (*AvatarService, *fixture) {
	t.Helper()
	f := newFixture(t)
	cfg := sc.Default()
	cfg.S3Region = "us-east-1"
	cfg.S3AccessKey = "minioadmin"
	cfg.S3SecretKey = "minioadmin"
	cfg.S3BaseEndpoint = "http://127.0.0.1:9000"
	cfg.S3Bucket = "conduit"
	cfg.S3PresignTTL = 10 * time.Minute

	svc := NewAvatarService(&cfg, f.auth)
	svc.now = func() time.Time { return time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC) }
	return svc, f
}

// stubS3 replaces the AWS seams for the duration of the test.
func stubS3(t *testing.T, presign func(in *s3.PutObjectInput) (*v4.PresignedHTTPRequest, error)) {
	t.Helper()

	origLoad, origNewS3, origNewPre, origPut := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient, presignPutObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://127.0.0.1:9000" {
			t.Fatalf("BaseEndpoint not applied")
		}
		if !opts.UsePathStyle {
			t.Fatalf("path style not enabled")
		}
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return presign(in)
	}
}

func TestAvatarService_RequestUpload(t *testing.T) {
	svc, f := newAvatarSvc(t)
	alice := f.register(t, "a@x.com", "alice")

	var got *s3.PutObjectInput
	stubS3(t, func(in *s3.PutObjectInput) (*v4.PresignedHTTPRequest, error) {
		got = in
		return &v4.PresignedHTTPRequest{URL: "http://127.0.0.1:9000/conduit/" + *in.Key}, nil
	})

	up, err := svc.RequestUpload(context.Background(), alice.ID, "image/png")
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "conduit", *got.Bucket)
	assert.Equal(t, "image/png", *got.ContentType)
	assert.True(t, strings.HasPrefix(up.Key, "avatars/"+alice.ID+"/2026/03/"), up.Key)
	assert.Equal(t, "http://127.0.0.1:9000/conduit/"+up.Key, up.URL)
	assert.Equal(t, time.Date(2026, 3, 5, 12, 10, 0, 0, time.UTC), up.ExpiresAt)
}

func TestAvatarService_RequestUploadErrors(t *testing.T) {
	svc, f := newAvatarSvc(t)
	alice := f.register(t, "a@x.com", "alice")
	ctx := context.Background()

	stubS3(t, func(*s3.PutObjectInput) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-fail")
	})

	_, err := svc.RequestUpload(ctx, "ghost", "image/png")
	require.ErrorIs(t, err, common.ErrSubjectNotFound)

	_, err = svc.RequestUpload(ctx, alice.ID, "application/pdf")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.RequestUpload(ctx, alice.ID, "image/jpeg")
	require.ErrorIs(t, err, common.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "presign-fail")

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = svc.RequestUpload(ctx, alice.ID, "image/jpeg")
	require.ErrorIs(t, err, common.ErrUpstreamUnavailable)
	assert.Contains(t, err.Error(), "load-fail")
}
