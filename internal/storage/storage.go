// Package storage keeps uploaded application documents.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Storage puts an object under a slash-separated key and returns its public URL.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader) (string, error)
	PublicURL(key string) string
}

// Local writes objects below a root directory. The directory is expected to be
// served under baseURL (see app.Static in cmd/server).
type Local struct {
	root    string
	baseURL string
}

func NewLocal(root, baseURL string) *Local {
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (l *Local) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	filePath := filepath.Join(l.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("storage: create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return l.PublicURL(clean), nil
}

func (l *Local) PublicURL(key string) string {
	return l.baseURL + "/" + strings.TrimLeft(key, "/")
}

// cleanKey rejects keys that would escape the root directory.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("storage: empty key")
	}
	if k != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return k, nil
}

// Extension returns the lower-cased extension of filename without the dot,
// or "bin" when there is none.
func Extension(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "bin"
	}
	return ext
}

// DocumentKey builds the object key for an applicant document:
// {applicantID}/{kind}_{unixMillis}.{ext}.
func DocumentKey(applicantID, kind string, unixMillis int64, filename string) string {
	return fmt.Sprintf("%s/%s_%d.%s", applicantID, kind, unixMillis, Extension(filename))
}
