// Package storage persists mapping inputs and transformation outputs behind
// one small object-store interface with memory, disk, S3 and Postgres
// backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Store is a flat object store addressed by slash-separated paths such as
// "mappings/customer.json".
type Store interface {
	// List returns the full paths of all objects under the folder prefix,
	// sorted. An empty prefix lists everything.
	List(ctx context.Context, prefix string) ([]string, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, content []byte, contentType string) error
}

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidPath = errors.New("invalid object path")
)

// Content types used for stored objects.
const (
	ContentTypeJSON   = "application/json"
	ContentTypeXML    = "application/xml"
	ContentTypeText   = "text/plain; charset=utf-8"
	ContentTypeBinary = "application/octet-stream"
)

// CleanPath normalizes an object path. Paths escaping the store root are
// rejected.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	cleaned := strings.TrimLeft(path.Clean("/"+p), "/")
	if cleaned == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	for _, part := range strings.Split(strings.TrimLeft(p, "/"), "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q escapes the store root", ErrInvalidPath, p)
		}
	}
	return cleaned, nil
}

// folderPrefix turns a List prefix into the key prefix it matches.
func folderPrefix(prefix string) (string, error) {
	if strings.TrimSpace(prefix) == "" || strings.TrimSpace(prefix) == "/" {
		return "", nil
	}
	cleaned, err := CleanPath(prefix)
	if err != nil {
		return "", err
	}
	return cleaned + "/", nil
}

// Join builds an object path from folder and name.
func Join(folder, name string) string {
	folder = strings.Trim(strings.TrimSpace(folder), "/")
	name = strings.TrimLeft(strings.TrimSpace(name), "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
