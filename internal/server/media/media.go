// Package media stores uploaded cover and avatar images.
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"

	"github.com/iudanet/readshare/internal/apperr"
)

// Backend persists a file under key and returns its public URL
type Backend interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// allowedTypes сопоставляет допустимый MIME тип с расширением файла
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Service validates, downsizes and stores images
type Service struct {
	logger   *slog.Logger
	backend  Backend
	maxBytes  int64
	maxWidth  int
	maxPixels int
}

// NewService creates a media service.
// maxBytes bounds the upload size, maxWidth the stored image width,
// maxPixels the declared width*height accepted before decoding.
func NewService(logger *slog.Logger, backend Backend, maxBytes int64, maxWidth, maxPixels int) *Service {
	return &Service{
		logger:    logger,
		backend:   backend,
		maxBytes:  maxBytes,
		maxWidth:  maxWidth,
		maxPixels: maxPixels,
	}
}

// MaxBytes returns the upload size limit
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload reads an image, checks its real type, shrinks it to the configured
// width and stores it. Returns the public URL.
func (s *Service) Upload(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", apperr.New(apperr.ErrValidation, "file too large (max %d bytes)", s.maxBytes)
	}
	if len(data) == 0 {
		return "", apperr.New(apperr.ErrValidation, "file is empty")
	}

	// Тип определяем по содержимому, а не по заголовку клиента
	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return "", apperr.New(apperr.ErrValidation, "file type not allowed: %s", contentType)
	}

	if err := s.checkDimensions(data, contentType); err != nil {
		return "", err
	}

	data, err = s.downscale(data, contentType)
	if err != nil {
		return "", apperr.New(apperr.ErrValidation, "invalid image: %v", err)
	}

	key := ulid.Make().String() + ext
	url, err := s.backend.Put(ctx, key, contentType, data)
	if err != nil {
		return "", fmt.Errorf("store media: %w", err)
	}

	s.logger.InfoContext(ctx, "media stored",
		slog.String("key", key),
		slog.String("content_type", contentType),
		slog.Int("bytes", len(data)))

	return url, nil
}

// checkDimensions читает только заголовок изображения: сжатый файл может
// объявлять размеры, декодирование которых не поместится в память.
// WebP не декодируется и хранится как есть, поэтому не проверяется.
func (s *Service) checkDimensions(data []byte, contentType string) error {
	if contentType == "image/webp" {
		return nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return apperr.New(apperr.ErrValidation, "invalid image: %v", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return apperr.New(apperr.ErrValidation, "invalid image dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(s.maxPixels) {
		return apperr.New(apperr.ErrValidation, "image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, s.maxPixels)
	}
	return nil
}

// downscale уменьшает JPEG и PNG шире maxWidth (Lanczos, пропорционально).
// GIF и WebP сохраняются как есть.
func (s *Service) downscale(data []byte, contentType string) ([]byte, error) {
	var format imaging.Format
	switch contentType {
	case "image/jpeg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	default:
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	if img.Bounds().Dx() <= s.maxWidth {
		return data, nil
	}

	resized := imaging.Resize(img, s.maxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
