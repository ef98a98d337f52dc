package storage

import (
	"context"
	"fmt"

	"bydm/internal/util/jsonutil"
)

// DecodeError reports a stored object that is not valid JSON.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// LoadJSON reads and decodes a JSON object. Missing objects keep ErrNotFound
// in the error chain.
func LoadJSON(ctx context.Context, s Store, path string) (any, error) {
	raw, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	v, err := jsonutil.Decode(raw)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return v, nil
}

// LoadJSONObject is LoadJSON for documents whose root must be an object.
func LoadJSONObject(ctx context.Context, s Store, path string) (map[string]any, error) {
	raw, err := s.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	obj, err := jsonutil.DecodeObject(raw)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return obj, nil
}

// SaveJSON writes v as indented JSON and returns the path written.
func SaveJSON(ctx context.Context, s Store, path string, v any) (string, error) {
	raw, err := jsonutil.MarshalIndent(v)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := s.Put(ctx, path, raw, ContentTypeJSON); err != nil {
		return "", err
	}
	return path, nil
}
