// internal/services/storage_service_test.go
package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"regexp"
	"testing"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stretchr/testify/assert"

	"github.com/storymint/storymint-backend/internal/apperrors"
	"github.com/storymint/storymint-backend/internal/config"
)

func testStorageService() *StorageService {
	return &StorageService{
		config: &config.Config{
			Storage: config.StorageConfig{
				Bucket: "ip-assets",
				Region: "us-east-1",
			},
		},
	}
}

func TestUploadRejectsOversizeBeforeAnyStorageCall(t *testing.T) {
	svc := testStorageService()
	header := &multipart.FileHeader{Filename: "big.jpg", Size: 11 * 1024 * 1024}

	_, err := svc.UploadFile(context.Background(), nil, header, UploadOptions{
		MaxSize: 10 * 1024 * 1024,
	})
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindPayloadTooLarge, apperrors.KindOf(err))
	// The message names the actual ceiling so the client can adjust.
	assert.Contains(t, err.Error(), "10485760 byte ceiling")
}

func TestReadUploadWithoutCeilingReadsEverything(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 5*1024)

	data, err := readUpload(bytes.NewReader(payload), 0)
	assert.NoError(t, err)
	assert.Len(t, data, len(payload))
}

func TestReadUploadEnforcesCeiling(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 128)

	data, err := readUpload(bytes.NewReader(payload), 256)
	assert.NoError(t, err)
	assert.Len(t, data, 128)

	_, err = readUpload(bytes.NewReader(payload), 64)
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindPayloadTooLarge, apperrors.KindOf(err))
}

func TestValidateFileTypeAcceptsByExtension(t *testing.T) {
	svc := testStorageService()
	detected := mimetype.Detect([]byte("plain text content"))

	err := svc.validateFileType("notes.txt", detected, []string{".txt", ".md"})
	assert.NoError(t, err)
}

func TestValidateFileTypeAcceptsBySniffedType(t *testing.T) {
	svc := testStorageService()
	// A PNG payload under a misleading filename still passes when .png is allowed.
	png := append([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}, make([]byte, 64)...)
	detected := mimetype.Detect(png)

	err := svc.validateFileType("upload.dat", detected, []string{".png"})
	assert.NoError(t, err)
}

func TestValidateFileTypeRejectsDisallowed(t *testing.T) {
	svc := testStorageService()
	detected := mimetype.Detect([]byte("#!/bin/sh\nrm -rf /"))

	err := svc.validateFileType("script.sh", detected, []string{".jpg", ".png"})
	assert.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestValidateFileTypeEmptyAllowlistAcceptsAll(t *testing.T) {
	svc := testStorageService()
	detected := mimetype.Detect([]byte("anything"))
	assert.NoError(t, svc.validateFileType("x.weird", detected, nil))
}

func TestGenerateKeyFormat(t *testing.T) {
	svc := testStorageService()

	key := svc.generateKey("photo.JPG", "ip-assets")
	assert.Regexp(t, regexp.MustCompile(`^ip-assets/\d{13}_[a-z0-9]{13}\.JPG$`), key)

	// No folder and no extension falls back to .bin at the root.
	key = svc.generateKey("README", "")
	assert.Regexp(t, regexp.MustCompile(`^\d{13}_[a-z0-9]{13}\.bin$`), key)
}

func TestGenerateKeyIsCollisionResistant(t *testing.T) {
	svc := testStorageService()
	a := svc.generateKey("a.png", "")
	b := svc.generateKey("a.png", "")
	assert.NotEqual(t, a, b)
}

func TestClassifyStorageErrorMissingBucket(t *testing.T) {
	svc := testStorageService()

	err := svc.classifyStorageError(errors.New("Bucket not found"))
	assert.Equal(t, apperrors.KindBucketMissing, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), `bucket "ip-assets" not found`)
	assert.Contains(t, err.Error(), "Create the bucket in your storage console")
}

func TestClassifyStorageErrorKinds(t *testing.T) {
	svc := testStorageService()
	cases := []struct {
		message string
		kind    apperrors.Kind
	}{
		{"new row violates row-level security Policy", apperrors.KindAccessDenied},
		{"RLS violation", apperrors.KindAccessDenied},
		{"server returned 403", apperrors.KindAccessDenied},
		{"payload too large", apperrors.KindPayloadTooLarge},
		{"status 413", apperrors.KindPayloadTooLarge},
		{"invalid JWT", apperrors.KindAuthFailure},
		{"status 401", apperrors.KindAuthFailure},
		{"connection reset by peer", apperrors.KindNetwork},
	}
	for _, tc := range cases {
		err := svc.classifyStorageError(errors.New(tc.message))
		assert.Equal(t, tc.kind, apperrors.KindOf(err), "message: %s", tc.message)
	}
}

func TestPublicURLPrefersConfiguredBase(t *testing.T) {
	svc := testStorageService()
	svc.config.Storage.PublicBaseURL = "https://cdn.example.com/"

	assert.Equal(t, "https://cdn.example.com/ip-assets/a.png", svc.publicURL("ip-assets/a.png"))

	svc.config.Storage.PublicBaseURL = ""
	assert.Equal(t,
		"https://ip-assets.s3.us-east-1.amazonaws.com/ip-assets/a.png",
		svc.publicURL("ip-assets/a.png"))
}
