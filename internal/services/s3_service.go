package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go/logging"
	"github.com/sitescope/backend/internal/config"
)

// S3Service talks to the S3-compatible bucket holding all project media.
// It satisfies feed.ObjectStore.
type S3Service struct {
	client *s3.Client
	cfg    *config.Config
}

func NewS3Service(cfg *config.Config) (*S3Service, error) {
	client, err := buildClient(cfg.MediaS3Endpoint, cfg.MediaS3Region, cfg.MediaS3AccessKeyID, cfg.MediaS3SecretAccessKey, cfg.MediaS3UsePathStyle)
	if err != nil {
		return nil, err
	}
	return &S3Service{client: client, cfg: cfg}, nil
}

func buildClient(endpoint, region, key, secret string, pathStyle bool) (*s3.Client, error) {
	resolver := awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
		func(service, rgn string, options ...interface{}) (aws.Endpoint, error) {
			if endpoint != "" {
				return aws.Endpoint{URL: endpoint, SigningRegion: region}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		}))
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		resolver,
		awsconfig.WithLogger(logging.NewStandardLogger(nil)),
	)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = pathStyle
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
		}
	})
	return client, nil
}

// Put streams body into the media bucket under key. The multipart uploader
// drains body sequentially, so a counting reader wrapped around it sees
// transfer progress.
func (s *S3Service) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	uploader := manager.NewUploader(s.client)
	in := &s3.PutObjectInput{
		Bucket:      &s.cfg.MediaBucket,
		Key:         &key,
		Body:        body,
		ContentType: &contentType,
		ACL:         s3types.ObjectCannedACLPrivate,
	}
	_, err := uploader.Upload(ctx, in, func(u *manager.Uploader) { u.PartSize = 10 * 1024 * 1024 })
	return err
}

// ResolveURL returns the retrieval address for an uploaded object.
func (s *S3Service) ResolveURL(ctx context.Context, key string) (string, error) {
	ttl := time.Duration(s.cfg.PresignedURLTTLMinutes) * time.Minute
	return s.PresignGet(ctx, key, ttl)
}

// PresignGet builds a presigned GET URL with the given lifetime.
func (s *S3Service) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	presigner := s3.NewPresignClient(s.client)
	out, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{Bucket: &s.cfg.MediaBucket, Key: &key}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

// Delete removes an object from the media bucket.
func (s *S3Service) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.cfg.MediaBucket,
		Key:    &key,
	})
	return err
}

// Download fetches an object into a memory buffer (for local caching).
func (s *S3Service) Download(ctx context.Context, key string) (*manager.WriteAtBuffer, error) {
	downloader := manager.NewDownloader(s.client)
	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := downloader.Download(ctx, buf, &s3.GetObjectInput{Bucket: &s.cfg.MediaBucket, Key: &key})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// DownloadToFile fetches an object directly to a local file (large videos).
func (s *S3Service) DownloadToFile(ctx context.Context, key, destPath string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()
	downloader := manager.NewDownloader(s.client)
	_, err = downloader.Download(ctx, f, &s3.GetObjectInput{Bucket: &s.cfg.MediaBucket, Key: &key})
	return err
}

// ListKeys lists media keys with a prefix, following continuation tokens.
func (s *S3Service) ListKeys(ctx context.Context, prefix string, max int32) ([]string, error) {
	keys := []string{}
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.cfg.MediaBucket,
			Prefix:            &prefix,
			ContinuationToken: token,
			MaxKeys:           aws.Int32(max),
		})
		if err != nil {
			return nil, err
		}
		for _, o := range out.Contents {
			keys = append(keys, *o.Key)
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	return keys, nil
}

// PublicURL builds a direct (unsigned) URL for an object, usable only when
// the endpoint serves the bucket publicly.
func (s *S3Service) PublicURL(key string) string {
	e := s.client.Options().BaseEndpoint
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", *e, s.cfg.MediaBucket, url.PathEscape(key))
}
