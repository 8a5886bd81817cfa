// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/cenkalti/backoff/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/config"
	"github.com/storymint/storymint-backend/internal/utils"
)

// FileStore is the upload surface the mint orchestrator depends on.
type FileStore interface {
	UploadFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, options UploadOptions) (*UploadResult, error)
	DeleteFile(ctx context.Context, key string) error
}

type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Storage.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.Storage.AccessKeyID,
			cfg.Storage.SecretAccessKey,
			"",
		),
	}
	if cfg.Storage.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Storage.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}, nil
}

// UploadFile validates the file, then stores it and computes its SHA-256
// digest in parallel. Upload failures are retried with exponential backoff
// unless classified as permanent.
func (s *StorageService) UploadFile(ctx context.Context, file multipart.File, header *multipart.FileHeader, options UploadOptions) (*UploadResult, error) {
	if options.MaxSize > 0 && header.Size > options.MaxSize {
		return nil, apperrors.Newf(apperrors.KindPayloadTooLarge,
			"file size %d bytes exceeds the %d byte ceiling", header.Size, options.MaxSize)
	}

	fileBytes, err := readUpload(file, options.MaxSize)
	if err != nil {
		return nil, err
	}

	// Sniff the real content type rather than trusting the client header.
	detected := mimetype.Detect(fileBytes)
	if declared := header.Header.Get("Content-Type"); declared != "" && !detected.Is(declared) {
		logrus.WithFields(logrus.Fields{
			"declared": declared,
			"detected": detected.String(),
			"filename": header.Filename,
		}).Warn("Declared content type does not match file contents")
	}
	if err := s.validateFileType(header.Filename, detected, options.AllowedTypes); err != nil {
		return nil, err
	}

	key := s.generateKey(header.Filename, options.Folder)

	hashCh := make(chan string, 1)
	go func() {
		hashCh <- utils.HashBytes(fileBytes)
	}()

	uploadErr := make(chan error, 1)
	go func() {
		uploadErr <- s.putWithRetry(ctx, key, fileBytes, detected.String())
	}()

	if err := <-uploadErr; err != nil {
		return nil, err
	}
	digest := <-hashCh

	return &UploadResult{
		URL:      s.publicURL(key),
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: detected.String(),
		SHA256:   digest,
	}, nil
}

// readUpload buffers the upload, enforcing the ceiling when one is set. A
// zero ceiling means unlimited, not zero bytes.
func readUpload(file io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "failed to read uploaded file", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "failed to read uploaded file", err)
	}
	if int64(len(data)) > maxSize {
		return nil, apperrors.Newf(apperrors.KindPayloadTooLarge,
			"file exceeds the %d byte ceiling", maxSize)
	}
	return data, nil
}

func (s *StorageService) putWithRetry(ctx context.Context, key string, fileBytes []byte, contentType string) error {
	operation := func() error {
		_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.config.Storage.Bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(fileBytes),
			ContentType:   aws.String(contentType),
			ContentLength: aws.Int64(int64(len(fileBytes))),
		})
		if err == nil {
			return nil
		}

		classified := s.classifyStorageError(err)
		if apperrors.Retryable(classified) {
			logrus.WithError(err).WithField("key", key).Warn("Upload attempt failed, retrying")
			return classified
		}
		return backoff.Permanent(classified)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 1 * time.Second
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 45 * time.Second

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

// classifyStorageError converts provider failures into tagged errors with
// actionable messages. Message-text inspection happens only here, at the
// adapter boundary.
func (s *StorageService) classifyStorageError(err error) error {
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchBucket:
			return apperrors.Wrap(apperrors.KindBucketMissing,
				fmt.Sprintf("storage bucket %q not found. Create the bucket in your storage console before uploading", s.config.Storage.Bucket), err)
		case "AccessDenied", "AllAccessDisabled":
			return apperrors.Wrap(apperrors.KindAccessDenied,
				"upload rejected by the storage access policy. Check the bucket policy allows writes for this key", err)
		case "EntityTooLarge":
			return apperrors.Wrap(apperrors.KindPayloadTooLarge, "file is too large for the storage provider", err)
		case "ExpiredToken", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return apperrors.Wrap(apperrors.KindAuthFailure,
				"storage authentication failed. Check the configured access keys", err)
		case "RequestCanceled":
			return apperrors.Wrap(apperrors.KindNetwork, "upload canceled", err)
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "Bucket not found") || strings.Contains(msg, "NoSuchBucket"):
		return apperrors.Wrap(apperrors.KindBucketMissing,
			fmt.Sprintf("storage bucket %q not found. Create the bucket in your storage console before uploading", s.config.Storage.Bucket), err)
	case strings.Contains(msg, "Policy") || strings.Contains(msg, "RLS") || strings.Contains(msg, "403"):
		return apperrors.Wrap(apperrors.KindAccessDenied,
			"upload rejected by the storage access policy", err)
	case strings.Contains(msg, "payload too large") || strings.Contains(msg, "413"):
		return apperrors.Wrap(apperrors.KindPayloadTooLarge, "file is too large for the storage provider", err)
	case strings.Contains(msg, "JWT") || strings.Contains(msg, "auth") || strings.Contains(msg, "401"):
		return apperrors.Wrap(apperrors.KindAuthFailure, "storage authentication failed", err)
	default:
		return apperrors.Wrap(apperrors.KindNetwork, "upload failed", err)
	}
}

func (s *StorageService) validateFileType(filename string, detected *mimetype.MIME, allowedTypes []string) error {
	if len(allowedTypes) == 0 {
		return nil
	}

	fileExt := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range allowedTypes {
		if fileExt == allowed || detected.Extension() == allowed {
			return nil
		}
	}
	return apperrors.Newf(apperrors.KindValidation, "file type %s is not allowed", fileExt)
}

// CheckBucket verifies the configured bucket exists and is reachable, for
// the health diagnostics endpoint.
func (s *StorageService) CheckBucket(ctx context.Context) error {
	_, err := s.s3Client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.config.Storage.Bucket),
	})
	if err != nil {
		return s.classifyStorageError(err)
	}
	return nil
}

func (s *StorageService) DeleteFile(ctx context.Context, key string) error {
	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Storage.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return s.classifyStorageError(err)
	}
	return nil
}

func (s *StorageService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.Storage.Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}

func (s *StorageService) DefaultUploadOptions() UploadOptions {
	return UploadOptions{
		Folder:  s.config.Upload.Folder,
		MaxSize: s.config.Upload.MaxSizeBytes,
		AllowedTypes: []string{
			".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg",
			".mp3", ".wav", ".ogg", ".flac",
			".mp4", ".webm", ".mov",
			".pdf", ".txt", ".md", ".zip",
		},
	}
}

// generateKey builds a collision-resistant object key from the upload time
// and a random token, keeping the original extension.
func (s *StorageService) generateKey(originalName, folder string) string {
	ext := strings.TrimPrefix(filepath.Ext(originalName), ".")
	if ext == "" {
		ext = "bin"
	}

	token, err := utils.GenerateRandomString(13)
	if err != nil {
		token = fmt.Sprintf("%d", time.Now().UnixNano())
	}

	filename := fmt.Sprintf("%d_%s.%s", time.Now().UnixMilli(), token, ext)
	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}
	return filename
}

func (s *StorageService) publicURL(key string) string {
	if s.config.Storage.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.config.Storage.PublicBaseURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.Storage.Bucket, s.config.Storage.Region, key)
}
