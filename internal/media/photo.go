package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/aryan0dhankhar/natours/internal/domain"
)

// PhotoSize is the edge of the square user photo.
const PhotoSize = 500

// ObjectStore persists encoded images under a key.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// PhotoProcessor normalizes uploaded user photos and stores them.
type PhotoProcessor struct {
	store   ObjectStore
	quality int
	now     func() time.Time
	logger  *slog.Logger
}

func NewPhotoProcessor(store ObjectStore, logger *slog.Logger) *PhotoProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PhotoProcessor{store: store, quality: 90, now: time.Now, logger: logger}
}

// SaveUserPhoto crops the image to a 500x500 JPEG and returns the stored
// file name.
func (p *PhotoProcessor) SaveUserPhoto(ctx context.Context, userID uuid.UUID, r io.Reader) (string, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", domain.Validation("Not an image! Please upload only images.").Wrap(err)
	}
	out := imaging.Fill(src, PhotoSize, PhotoSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return "", fmt.Errorf("encode photo: %w", err)
	}

	name := fmt.Sprintf("user-%s-%d.jpeg", userID, p.now().UnixMilli())
	if err := p.store.Put(ctx, name, &buf, int64(buf.Len()), "image/jpeg"); err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	p.logger.Debug("user photo stored", slog.String("user_id", userID.String()), slog.String("file", name))
	return name, nil
}
