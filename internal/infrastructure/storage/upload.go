package storage

import (
	"context"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"nhadat-backend/internal/infrastructure/metrics"
	"nhadat-backend/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Upload limits.
const (
	MaxImageSize     = 5 * 1024 * 1024
	MaxListingImages = 10
	AvatarFormField  = "avatar"
	ListingFormField = "images"
)

var (
	ErrUnsupportedImage = apperror.Validation("Chỉ cho phép upload file ảnh (JPEG, JPG, PNG, GIF)")
	ErrImageTooLarge    = apperror.Validation("Kích thước ảnh tối đa 5MB")
	ErrTooManyImages    = apperror.Validation("Chỉ được tải lên tối đa 10 ảnh")
	ErrNoFile           = apperror.Validation("Vui lòng chọn file ảnh")
)

var allowedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// File is an uploaded file not yet stored.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromMultipart adapts a multipart file header.
func FromMultipart(fh *multipart.FileHeader) File {
	return File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// ContentTypeFor returns the image content type for a key's extension, or "".
func ContentTypeFor(key string) string {
	return allowedExt[strings.ToLower(filepath.Ext(key))]
}

// ValidateImage checks extension, declared content type and size. Extension and
// type are checked independently against the image set, so a.jpg sent as
// image/png passes while a missing or generic type does not.
func ValidateImage(f File) error {
	if _, ok := allowedExt[strings.ToLower(filepath.Ext(f.Name))]; !ok {
		return ErrUnsupportedImage
	}
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if !allowedTypes[ct] {
		return ErrUnsupportedImage
	}
	if f.Size > MaxImageSize {
		return ErrImageTooLarge
	}
	return nil
}

// ValidateImages checks a batch against the per-request limit and each file.
func ValidateImages(files []File, max int) error {
	if len(files) > max {
		return ErrTooManyImages
	}
	for _, f := range files {
		if err := ValidateImage(f); err != nil {
			return err
		}
	}
	return nil
}

// Stored describes an object written by Assets.Save.
type Stored struct {
	Key  string
	Ref  string
	Size int64
}

// Assets stores image uploads on an ObjectStorage backend and maps them to public references.
type Assets struct {
	backend ObjectStorage
}

func NewAssets(backend ObjectStorage) *Assets {
	return &Assets{backend: backend}
}

func (a *Assets) Backend() ObjectStorage {
	return a.backend
}

// Save validates f and writes it under folder with a fresh name.
func (a *Assets) Save(ctx context.Context, folder string, f File) (Stored, error) {
	if err := ValidateImage(f); err != nil {
		return Stored{}, err
	}
	ext := strings.ToLower(filepath.Ext(f.Name))
	key := folder + "/" + uuid.NewString() + ext
	rc, err := f.Open()
	if err != nil {
		return Stored{}, err
	}
	defer rc.Close()
	if err := a.backend.Put(ctx, key, rc, f.Size, allowedExt[ext]); err != nil {
		metrics.StorageFailures.WithLabelValues("put").Inc()
		return Stored{}, err
	}
	return Stored{Key: key, Ref: RefForKey(key), Size: f.Size}, nil
}

// SaveAll stores every file or none: on failure the files already written are removed.
func (a *Assets) SaveAll(ctx context.Context, folder string, files []File) ([]Stored, error) {
	out := make([]Stored, 0, len(files))
	for _, f := range files {
		s, err := a.Save(ctx, folder, f)
		if err != nil {
			a.RemoveStored(ctx, out)
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// RemoveStored deletes objects written earlier in a failed operation.
func (a *Assets) RemoveStored(ctx context.Context, stored []Stored) {
	for _, s := range stored {
		if err := a.backend.Delete(ctx, s.Key); err != nil {
			metrics.StorageFailures.WithLabelValues("cleanup").Inc()
			log.Warn().Err(err).Str("key", s.Key).Msg("storage: cleanup failed")
		}
	}
}

// RemoveRefs deletes the objects behind public references. Failures are logged, not returned.
func (a *Assets) RemoveRefs(ctx context.Context, refs ...string) {
	for _, ref := range refs {
		key, ok := KeyFromRef(ref)
		if !ok {
			log.Warn().Str("ref", ref).Msg("storage: not an asset reference")
			continue
		}
		if err := a.backend.Delete(ctx, key); err != nil {
			metrics.StorageFailures.WithLabelValues("delete").Inc()
			log.Warn().Err(err).Str("key", key).Msg("storage: delete failed")
		}
	}
}

// Open returns the object for a key under the public /assets/ path.
func (a *Assets) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	return a.backend.Get(ctx, k)
}
