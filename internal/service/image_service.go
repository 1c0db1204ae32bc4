package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"strings"

	"feira/internal/models"
	"feira/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	ImageMaxUploadSizeMB    = 10
	ImageMaxDimension       = 2048
	ImageThumbnailDimension = 400
	WebPQuality             = 80
)

// UploadImageInput is a raw image upload for a listing.
type UploadImageInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// UploadedImage holds the stored renditions of one upload.
type UploadedImage struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// ImageService normalizes uploaded listing images: every accepted
// upload is re-encoded to WebP, capped at ImageMaxDimension on the long
// edge, paired with a card-sized thumbnail and stored in the object
// store under fresh keys.
type ImageService struct {
	store              storage.ObjectStore
	maxUploadSizeBytes int64
}

// NewImageService returns an ImageService writing to store.
func NewImageService(store storage.ObjectStore) *ImageService {
	return &ImageService{
		store:              store,
		maxUploadSizeBytes: int64(ImageMaxUploadSizeMB) * 1024 * 1024,
	}
}

// Upload validates, normalizes and stores an image plus its thumbnail,
// returning the URLs of both renditions.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*UploadedImage, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", ImageMaxUploadSizeMB))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	normalized := resizeToFit(decoded, ImageMaxDimension, ImageMaxDimension)
	encoded, err := encodeWebP(normalized, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	thumb := resizeToFit(decoded, ImageThumbnailDimension, ImageThumbnailDimension)
	encodedThumb, err := encodeWebP(thumb, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	base := uuid.NewString()
	url, err := s.store.Upload(ctx, fmt.Sprintf("listings/%s.webp", base), bytes.NewReader(encoded), "image/webp")
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	thumbURL, err := s.store.Upload(ctx, fmt.Sprintf("listings/%s_thumb.webp", base), bytes.NewReader(encodedThumb), "image/webp")
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &UploadedImage{URL: url, ThumbnailURL: thumbURL}, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}
