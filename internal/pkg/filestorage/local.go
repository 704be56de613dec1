package filestorage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gatherly/gatherly/internal/pkg/logger"
	"github.com/google/uuid"
)

// ErrUnsupportedType is returned for uploads whose extension is not allowed.
var ErrUnsupportedType = errors.New("unsupported file type")

// LocalStorage stores files below basePath and serves them under urlPrefix.
type LocalStorage struct {
	basePath    string
	urlPrefix   string
	allowedExts map[string]bool
}

// NewLocalStorage ensures basePath exists. allowedExts lists lower-case extensions
// including the dot; an empty list allows everything.
func NewLocalStorage(basePath, urlPrefix string, allowedExts ...string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	exts := make(map[string]bool, len(allowedExts))
	for _, e := range allowedExts {
		exts[strings.ToLower(e)] = true
	}
	return &LocalStorage{
		basePath:    basePath,
		urlPrefix:   "/" + strings.Trim(urlPrefix, "/"),
		allowedExts: exts,
	}, nil
}

func (ls *LocalStorage) SaveFile(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	if fileHeader == nil {
		return "", nil
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if len(ls.allowedExts) > 0 && !ls.allowedExts[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	subPath = filepath.Clean("/" + subPath)[1:]
	dir := filepath.Join(ls.basePath, subPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	name := uuid.New().String() + ext
	dstPath := filepath.Join(dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	public := path.Join(ls.urlPrefix, filepath.ToSlash(subPath), name)
	logger.Info().Str("filename", fileHeader.Filename).Str("path", public).Msg("File saved")
	return public, nil
}

func (ls *LocalStorage) DeleteFile(publicPath string) error {
	if publicPath == "" {
		return nil
	}
	rel := strings.TrimPrefix(path.Clean(publicPath), ls.urlPrefix)
	if rel == publicPath || rel == "" || rel == "/" {
		return fmt.Errorf("path %q is outside storage", publicPath)
	}

	physical := filepath.Join(ls.basePath, filepath.FromSlash(rel))
	if err := os.Remove(physical); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
