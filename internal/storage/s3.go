package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"

	"github.com/local/docsummarizer/internal/config"
)

type s3API interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Client stores uploads in a bucket, sealed when a key is configured.
type S3Client struct {
	client     s3API
	uploader   *manager.Uploader
	bucketName string
	prefix     string
	password   string
}

// NewS3Client creates a new S3 client
func NewS3Client(ctx context.Context, conf config.StorageConfig) (*S3Client, error) {
	if conf.S3Bucket == "" {
		return nil, errors.New("AWS_S3_BUCKET is required for the s3 backend")
	}
	var opts []func(*awscfg.LoadOptions) error
	if conf.AWSRegion != "" {
		opts = append(opts, awscfg.WithRegion(conf.AWSRegion))
	}
	if conf.S3AccessKey != "" && conf.S3SecretKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.S3AccessKey, conf.S3SecretKey, "")))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.S3Endpoint)
		}
		o.UsePathStyle = conf.S3UsePathStyle
	})
	log.Info().Str("bucket", conf.S3Bucket).Str("endpoint", conf.S3Endpoint).Bool("sealed", conf.SealKey != "").Msg("S3 storage configured")
	return newS3(cli, conf.S3Bucket, conf.S3Prefix, conf.SealKey), nil
}

func newS3(cli s3API, bucket, prefix, password string) *S3Client {
	return &S3Client{
		client:     cli,
		uploader:   manager.NewUploader(cli),
		bucketName: bucket,
		prefix:     prefix,
		password:   password,
	}
}

func (s *S3Client) Name() string { return "s3" }

func (s *S3Client) objectKey(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	if s.prefix == "" {
		return key, nil
	}
	return path.Join(s.prefix, key), nil
}

// Put uploads data, sealing it first when a password is set.
func (s *S3Client) Put(ctx context.Context, key string, data []byte, meta FileMetadata) error {
	k, err := s.objectKey(key)
	if err != nil {
		return err
	}
	s3Metadata := map[string]string{"name": meta.OriginalName}
	body := data
	if s.password != "" {
		if body, err = seal(data, s.password); err != nil {
			log.Error().Err(err).Str("key", k).Msg("encryption failed")
			return fmt.Errorf("failed to encrypt data: %w", err)
		}
		s3Metadata["encrypted"] = "true"
		s3Metadata["encryption-format"] = string(sealMagic)
	}

	in := &s3.PutObjectInput{
		Bucket:   aws.String(s.bucketName),
		Key:      aws.String(k),
		Body:     bytes.NewReader(body),
		Metadata: s3Metadata,
	}
	if meta.ContentType != "" {
		in.ContentType = aws.String(meta.ContentType)
	}
	if _, err := s.uploader.Upload(ctx, in); err != nil {
		log.Error().Err(err).Str("key", k).Msg("upload failed")
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	log.Info().Str("key", k).Bool("encrypted", s.password != "").Int("size", len(body)).Msg("uploaded file to S3")
	return nil
}

// Get downloads and, when needed, decrypts an object.
func (s *S3Client) Get(ctx context.Context, key string) ([]byte, *FileMetadata, error) {
	k, err := s.objectKey(key)
	if err != nil {
		return nil, nil, err
	}
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(k),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	raw, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read S3 object: %w", err)
	}
	data, err := unseal(raw, s.password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decrypt data: %w", err)
	}

	meta := &FileMetadata{Size: int64(len(data)), Encrypted: isSealed(raw)}
	if result.ContentType != nil {
		meta.ContentType = *result.ContentType
	}
	if name, ok := result.Metadata["name"]; ok {
		meta.OriginalName = name
	} else if name, ok := result.Metadata["Name"]; ok {
		meta.OriginalName = name
	}
	return data, meta, nil
}

func (s *S3Client) Delete(ctx context.Context, key string) error {
	k, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(k),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (s *S3Client) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	return err
}
