// internal/services/metadata_service.go
package services

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/storymint/storymint-backend/internal/models"
)

// MetadataService builds the two normalized metadata documents published
// alongside a mint: the IP asset document and the NFT (ERC-721) document.
type MetadataService struct{}

func NewMetadataService() *MetadataService {
	return &MetadataService{}
}

type IPCreator struct {
	Name                string `json:"name"`
	Address             string `json:"address"`
	ContributionPercent int    `json:"contributionPercent"`
}

type IPMedia struct {
	OriginalURL  string `json:"originalUrl"`
	MediaType    string `json:"mediaType"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

type IPRelationships struct {
	ParentIPIDs []string `json:"parentIpIds"`
	RootIPIDs   []string `json:"rootIpIds"`
}

type IPMetadataDoc struct {
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	CreatedAt     string               `json:"createdAt"`
	IPType        models.MediaCategory `json:"ipType"`
	Creators      []IPCreator          `json:"creators"`
	Media         IPMedia              `json:"media"`
	Image         string               `json:"image,omitempty"`
	ImageHash     string               `json:"imageHash,omitempty"`
	MediaURL      string               `json:"mediaUrl,omitempty"`
	MediaHash     string               `json:"mediaHash,omitempty"`
	MediaType     string               `json:"mediaType,omitempty"`
	Tags          []string             `json:"tags"`
	ExternalURL   string               `json:"external_url,omitempty"`
	Relationships IPRelationships      `json:"relationships"`
}

type NFTMetadataDoc struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Image        string             `json:"image"`
	Attributes   []models.Attribute `json:"attributes"`
	ExternalURL  string             `json:"external_url,omitempty"`
	AnimationURL string             `json:"animation_url,omitempty"`
	MediaType    string             `json:"media_type,omitempty"`
	MediaURL     string             `json:"media_url,omitempty"`
}

// StoryMetadata pairs the two documents. The composer keeps the mirrored
// fields (name, description, image) consistent across both.
type StoryMetadata struct {
	IP  IPMetadataDoc
	NFT NFTMetadataDoc
}

// AssetInput is the form state the composer consumes.
type AssetInput struct {
	Name           string             `json:"name" binding:"required,min=1,max=200"`
	Description    string             `json:"description"`
	ExternalURL    string             `json:"external_url"`
	CreatorName    string             `json:"creator_name"`
	CreatorAddress string             `json:"creator_address"`
	Tags           []string           `json:"tags"`
	Attributes     []models.Attribute `json:"attributes"`
	IPType         string             `json:"ip_type"`
	ParentIPIDs    []string           `json:"parent_ip_ids"`
	RootIPIDs      []string           `json:"root_ip_ids"`
}

// ValidationReport separates hard errors from advisory warnings. Errors
// block publishing; warnings are logged and returned to the caller.
type ValidationReport struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *ValidationReport) Valid() bool {
	return len(r.Errors) == 0
}

const zeroAddress = "0x0000000000000000000000000000000000000000"

// Compose derives both metadata documents from form input plus the uploaded
// file. Deterministic apart from the creation timestamp.
func (s *MetadataService) Compose(input AssetInput, uploaded *UploadResult, filename string) *StoryMetadata {
	mediaType := uploaded.MimeType
	if mediaType == "" {
		mediaType = DetectMediaType(filename)
	}
	category := InferCategoryFromMIME(mediaType)
	if input.IPType != "" {
		category = models.MediaCategory(input.IPType)
	}

	creatorName := input.CreatorName
	if creatorName == "" {
		creatorName = synthesizeCreatorName(input.CreatorAddress)
	}
	creatorAddress := input.CreatorAddress
	if creatorAddress == "" {
		creatorAddress = zeroAddress
	}

	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	attributes := input.Attributes
	if attributes == nil {
		attributes = []models.Attribute{}
	}

	ip := IPMetadataDoc{
		Title:       input.Name,
		Description: input.Description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		IPType:      category,
		Creators: []IPCreator{{
			Name:                creatorName,
			Address:             creatorAddress,
			ContributionPercent: 100,
		}},
		Media: IPMedia{
			OriginalURL:  uploaded.URL,
			MediaType:    mediaType,
			ThumbnailURL: uploaded.URL,
		},
		Image:       uploaded.URL,
		ImageHash:   uploaded.SHA256,
		Tags:        tags,
		ExternalURL: input.ExternalURL,
		Relationships: IPRelationships{
			ParentIPIDs: orEmpty(input.ParentIPIDs),
			RootIPIDs:   orEmpty(input.RootIPIDs),
		},
	}

	nft := NFTMetadataDoc{
		Name:        input.Name,
		Description: input.Description,
		Image:       uploaded.URL,
		Attributes:  attributes,
		ExternalURL: input.ExternalURL,
		MediaType:   mediaType,
		MediaURL:    uploaded.URL,
	}

	// Audio and video carry the media reference separately so explorers can
	// render a player instead of a broken image.
	if category == models.MediaCategoryAudio || category == models.MediaCategoryVideo {
		ip.MediaURL = uploaded.URL
		ip.MediaHash = uploaded.SHA256
		ip.MediaType = mediaType
		nft.AnimationURL = uploaded.URL
	}

	return &StoryMetadata{IP: ip, NFT: nft}
}

// Validate checks both documents before publishing.
func (s *MetadataService) Validate(m *StoryMetadata) *ValidationReport {
	report := &ValidationReport{Errors: []string{}, Warnings: []string{}}

	if m.IP.Title == "" {
		report.Errors = append(report.Errors, "ip metadata is missing required field: title")
	}
	if m.IP.CreatedAt == "" {
		report.Errors = append(report.Errors, "ip metadata is missing required field: createdAt")
	}
	if len(m.IP.Creators) == 0 {
		report.Errors = append(report.Errors, "ip metadata is missing required field: creators")
	}
	for i, creator := range m.IP.Creators {
		if creator.Name == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("creator %d is missing required field: name", i+1))
		}
		if creator.Address == "" || creator.Address == zeroAddress {
			report.Warnings = append(report.Warnings, fmt.Sprintf("creator %d has a zero address", i+1))
		}
		if creator.ContributionPercent <= 0 || creator.ContributionPercent > 100 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("creator %d has invalid contribution percentage: %d", i+1, creator.ContributionPercent))
		}
	}
	if m.IP.Media.OriginalURL == "" {
		report.Errors = append(report.Errors, "ip metadata media is missing required field: originalUrl")
	} else if !isValidURL(m.IP.Media.OriginalURL) {
		report.Errors = append(report.Errors, "ip metadata has malformed media.originalUrl")
	}
	if m.IP.Media.MediaType == "" {
		report.Errors = append(report.Errors, "ip metadata media is missing required field: mediaType")
	}
	if m.IP.Image == "" {
		report.Warnings = append(report.Warnings, "ip metadata is missing image field")
	} else if !isValidURL(m.IP.Image) {
		report.Errors = append(report.Errors, "ip metadata has malformed image URL")
	}
	if m.IP.Image != "" && m.IP.ImageHash == "" {
		report.Warnings = append(report.Warnings, "ip metadata is missing imageHash, integrity cannot be verified")
	}
	if m.IP.MediaURL != "" {
		if !isValidURL(m.IP.MediaURL) {
			report.Errors = append(report.Errors, "ip metadata has malformed mediaUrl")
		}
		if m.IP.MediaHash == "" {
			report.Warnings = append(report.Warnings, "ip metadata has mediaUrl but no mediaHash")
		}
	}

	if m.NFT.Name == "" {
		report.Errors = append(report.Errors, "nft metadata is missing required field: name")
	}
	if m.NFT.Image == "" {
		report.Errors = append(report.Errors, "nft metadata is missing required field: image")
	} else if !isValidURL(m.NFT.Image) {
		report.Errors = append(report.Errors, "nft metadata has malformed image URL")
	}

	if m.IP.Title != m.NFT.Name {
		report.Warnings = append(report.Warnings, "ip metadata title and nft metadata name do not match")
	}
	if m.IP.Description != m.NFT.Description {
		report.Warnings = append(report.Warnings, "ip metadata description and nft metadata description do not match")
	}
	if m.IP.Image != m.NFT.Image {
		report.Warnings = append(report.Warnings, "ip metadata image and nft metadata image do not match")
	}

	return report
}

func synthesizeCreatorName(address string) string {
	if len(address) >= 10 {
		return fmt.Sprintf("Creator %s...%s", address[:6], address[len(address)-4:])
	}
	return "Creator"
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https" || u.Scheme == "ipfs"
}

var extensionMediaTypes = map[string]string{
	"jpg": "image/jpeg", "jpeg": "image/jpeg", "png": "image/png",
	"gif": "image/gif", "webp": "image/webp", "svg": "image/svg+xml",
	"mp3": "audio/mpeg", "wav": "audio/wav", "ogg": "audio/ogg",
	"flac": "audio/flac", "m4a": "audio/mp4",
	"mp4": "video/mp4", "webm": "video/webm", "avi": "video/avi", "mov": "video/quicktime",
	"pdf": "application/pdf", "txt": "text/plain", "json": "application/json",
}

// DetectMediaType maps a filename extension to a MIME type, defaulting to a
// generic binary type for anything unrecognized.
func DetectMediaType(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if mediaType, ok := extensionMediaTypes[ext]; ok {
		return mediaType
	}
	return "application/octet-stream"
}

// InferCategoryFromMIME collapses a MIME type into the coarse display
// category. Unrecognized types fall back to document by convention.
func InferCategoryFromMIME(mimeType string) models.MediaCategory {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.MediaCategoryImage
	case strings.HasPrefix(mimeType, "audio/"):
		return models.MediaCategoryAudio
	case strings.HasPrefix(mimeType, "video/"):
		return models.MediaCategoryVideo
	default:
		return models.MediaCategoryDocument
	}
}

// InferCategoryFromURL classifies a stored URL by extension and keyword
// heuristics, for rows persisted before the explicit type column existed.
func InferCategoryFromURL(rawURL string) models.MediaCategory {
	lower := strings.ToLower(rawURL)
	trimmed := lower
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}

	category := InferCategoryFromMIME(DetectMediaType(trimmed))
	if category != models.MediaCategoryDocument {
		return category
	}

	switch {
	case strings.Contains(lower, "image") || strings.Contains(lower, "photo") || strings.Contains(lower, "cover"):
		return models.MediaCategoryImage
	case strings.Contains(lower, "audio") || strings.Contains(lower, "sound") || strings.Contains(lower, "music"):
		return models.MediaCategoryAudio
	case strings.Contains(lower, "video"):
		return models.MediaCategoryVideo
	default:
		return models.MediaCategoryDocument
	}
}
