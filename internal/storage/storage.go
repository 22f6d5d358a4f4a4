// Package storage uploads user files (avatars and prayer proofs) to a
// public object store and returns their URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/namaz/internal/config"
	"github.com/smokyabdulrahman/namaz/internal/model"
)

// Logical buckets.
const (
	BucketAvatars = "avatars"
	BucketProofs  = "prayer-proofs"
)

// ErrInvalidName is returned for object names that could escape their bucket.
var ErrInvalidName = errors.New("invalid object name")

// Storage puts an object under bucket/name and returns its public URL.
// Putting an existing name replaces it.
type Storage interface {
	Put(ctx context.Context, bucket, name, contentType string, body io.Reader) (string, error)
}

// New builds the backend selected in cfg.
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case config.StorageSpaces:
		return NewSpacesStorage(cfg.SpacesEndpoint, cfg.SpacesRegion, cfg.SpacesBucket,
			cfg.SpacesCDNURL, cfg.SpacesAccessKey, cfg.SpacesSecretKey)
	case config.StorageCloudinary:
		return NewCloudinaryStorage(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	case config.StorageLocal, "":
		return NewLocalStorage(cfg.LocalDir, cfg.LocalBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// ProofName is the object name of a photo proof: {user}/{date}_{prayer}{ext}.
// Uploading again for the same prayer replaces the previous proof.
func ProofName(userID, date string, p model.Prayer, ext string) string {
	return fmt.Sprintf("%s/%s_%s%s", userID, date, p.Key(), ext)
}

// AvatarName is a fresh object name for a user's avatar.
func AvatarName(userID string) string {
	return fmt.Sprintf("%s/%s.jpg", userID, uuid.NewString())
}

// ExtFor maps an image content type to a file extension.
func ExtFor(contentType string) (string, bool) {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/gif":
		return ".gif", true
	case "image/webp":
		return ".webp", true
	}
	return "", false
}

func objectKey(bucket, name string) (string, error) {
	if bucket == "" || name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "..") || strings.Contains(bucket, "/") {
		return "", fmt.Errorf("%w: %s/%s", ErrInvalidName, bucket, name)
	}
	return path.Join(bucket, name), nil
}

// LocalStorage writes objects below a directory that the HTTP server exposes
// at baseURL.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, baseURL string) *LocalStorage {
	return &LocalStorage{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Dir returns the root directory.
func (ls *LocalStorage) Dir() string { return ls.dir }

func (ls *LocalStorage) Put(_ context.Context, bucket, name, _ string, body io.Reader) (string, error) {
	key, err := objectKey(bucket, name)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(ls.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	tmp := dst + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	log.Debug().Str("key", key).Msg("stored upload locally")
	return ls.baseURL + "/" + key, nil
}
