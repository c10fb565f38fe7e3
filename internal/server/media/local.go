package media

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend stores files in a flat directory served under urlPrefix
type LocalBackend struct {
	dir       string
	urlPrefix string
}

// NewLocalBackend создает директорию при необходимости
func NewLocalBackend(dir, urlPrefix string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalBackend{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/") + "/"}, nil
}

// Put записывает файл через временный файл и rename
func (b *LocalBackend) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	if !validName(key) {
		return "", fmt.Errorf("invalid media key %q", key)
	}

	tmp, err := os.CreateTemp(b.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write media: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close media: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(b.dir, key)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename media: %w", err)
	}

	return b.urlPrefix + key, nil
}

// Handler serves GET {urlPrefix}{name}. Only flat names are accepted.
func (b *LocalBackend) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, b.urlPrefix)
		if !validName(name) {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		http.ServeFile(w, r, filepath.Join(b.dir, name))
	})
}

// validName запрещает пути, скрытые файлы и выход за пределы директории
func validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.Contains(name, "..")
}
