package images

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"larrosacamiones.com/internal/obs"
	"larrosacamiones.com/internal/vehicles"
)

var (
	ErrInvalidImage = errors.New("images: invalid image")
	ErrTooLarge     = errors.New("images: file too large")
)

// Upload is one file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service validates uploads, stores originals and thumbnails in the blob
// store, and records image rows in the catalog.
type Service struct {
	blobs       BlobStore
	catalog     vehicles.Service
	maxFileSize int64
	allowedExts map[string]struct{}
}

// NewService wires the image pipeline.
func NewService(blobs BlobStore, catalog vehicles.Service, maxFileSize int64, allowedExts []string) *Service {
	exts := make(map[string]struct{}, len(allowedExts))
	for _, e := range allowedExts {
		exts[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))] = struct{}{}
	}
	return &Service{
		blobs:       blobs,
		catalog:     catalog,
		maxFileSize: maxFileSize,
		allowedExts: exts,
	}
}

// Validate rejects uploads before any bytes hit storage.
func (s *Service) Validate(up Upload) error {
	if strings.TrimSpace(up.Filename) == "" {
		return fmt.Errorf("%w: missing filename", ErrInvalidImage)
	}
	ext := extensionOf(up.Filename)
	if _, ok := s.allowedExts[ext]; !ok {
		return fmt.Errorf("%w: extension %q not allowed", ErrInvalidImage, ext)
	}
	if up.ContentType == "" || !strings.HasPrefix(up.ContentType, "image/") {
		return fmt.Errorf("%w: content type %q is not an image", ErrInvalidImage, up.ContentType)
	}
	if int64(len(up.Data)) > s.maxFileSize {
		return fmt.Errorf("%w: %d bytes exceeds limit %d", ErrTooLarge, len(up.Data), s.maxFileSize)
	}
	return nil
}

// Save stores one upload and records it against the vehicle. The first image
// stored for a vehicle becomes primary; ordering follows upload order.
func (s *Service) Save(ctx context.Context, vehicleID int64, up Upload) (vehicles.Image, error) {
	if err := s.Validate(up); err != nil {
		return vehicles.Image{}, err
	}

	img, format, err := decodeImage(up.Data)
	if err != nil {
		return vehicles.Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	bounds := img.Bounds()

	name := uuid.NewString()
	ext := extensionOf(up.Filename)
	originalKey := "vehicles/" + name + "." + ext

	thumbData, thumbExt, err := encodeThumbnail(thumbnail(img), format)
	if err != nil {
		return vehicles.Image{}, fmt.Errorf("encode thumbnail: %w", err)
	}
	thumbKey := "vehicles/thumbnails/" + name + "." + thumbExt

	if err := s.blobs.Put(ctx, originalKey, up.Data, up.ContentType); err != nil {
		return vehicles.Image{}, err
	}
	if err := s.blobs.Put(ctx, thumbKey, thumbData, thumbContentType(thumbExt)); err != nil {
		// Keep storage consistent: no original without its thumbnail.
		_ = s.blobs.Delete(ctx, originalKey)
		return vehicles.Image{}, err
	}

	record := vehicles.Image{
		VehicleID:        vehicleID,
		Filename:         name + "." + ext,
		OriginalFilename: up.Filename,
		FilePath:         s.blobs.URL(originalKey),
		ThumbnailPath:    s.blobs.URL(thumbKey),
		FileSize:         int64(len(up.Data)),
		MimeType:         up.ContentType,
		Width:            bounds.Dx(),
		Height:           bounds.Dy(),
	}
	saved, err := s.catalog.AddImage(ctx, record)
	if err != nil {
		_ = s.blobs.Delete(ctx, originalKey)
		_ = s.blobs.Delete(ctx, thumbKey)
		return vehicles.Image{}, err
	}
	return saved, nil
}

// SaveBatch stores every valid upload, skipping files that fail instead of
// aborting the batch; the caller learns how many made it.
func (s *Service) SaveBatch(ctx context.Context, vehicleID int64, ups []Upload) []vehicles.Image {
	saved := make([]vehicles.Image, 0, len(ups))
	for _, up := range ups {
		if up.Filename == "" {
			continue
		}
		img, err := s.Save(ctx, vehicleID, up)
		if err != nil {
			obs.ObserveImageUpload("failed")
			logger := obs.Logger()
			logger.Warn().Err(err).Str("filename", up.Filename).Int64("vehicle_id", vehicleID).
				Msg("image upload skipped")
			continue
		}
		obs.ObserveImageUpload("saved")
		saved = append(saved, img)
	}
	return saved
}

// Delete removes the stored blobs and the catalog record.
func (s *Service) Delete(ctx context.Context, imageID int64) error {
	record, err := s.catalog.GetImage(ctx, imageID)
	if err != nil {
		return err
	}

	originalKey := "vehicles/" + record.Filename
	base := strings.TrimSuffix(record.Filename, path.Ext(record.Filename))
	thumbKey := "vehicles/thumbnails/" + base + path.Ext(thumbnailName(record))

	if err := s.blobs.Delete(ctx, originalKey); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, thumbKey); err != nil {
		return err
	}
	return s.catalog.DeleteImage(ctx, imageID)
}

func thumbnailName(record vehicles.Image) string {
	if record.ThumbnailPath != "" {
		return path.Base(record.ThumbnailPath)
	}
	return record.Filename
}

func extensionOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
}

func thumbContentType(ext string) string {
	if ext == "png" {
		return "image/png"
	}
	return "image/jpeg"
}
