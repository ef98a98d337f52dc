package main

import (
	"bytes"
	"io"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bydm/internal/app"
	"bydm/internal/config"
	"bydm/internal/storage"
)

func newCachedApp(t *testing.T, logs io.Writer) *app.App {
	t.Helper()
	cfg := &config.Config{
		Env:     "test",
		Debug:   true,
		Storage: config.StorageConfig{Backend: config.BackendMemory},
		Folders: config.FolderConfig{
			Mappings: "mappings", Templates: "templates", Source: "source", Target: "target", Logs: "logs",
		},
		Batch:     config.BatchConfig{Size: 1, MaxWorkers: 1},
		Transform: config.TransformConfig{RootArrayField: "location"},
	}
	a, err := app.NewWithConfig(cfg, logs)
	require.NoError(t, err)
	a.Store = storage.NewCachedStore(a.Store, storage.DefaultCacheConfig())
	a.Out = io.Discard
	return a
}

func parse(t *testing.T, args ...string) *kong.Context {
	t.Helper()
	parser, err := kong.New(&Command{}, kong.Name("bydm"))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return ctx
}

func TestExecute_ClosesAppWhenCommandFails(t *testing.T) {
	var logs bytes.Buffer
	a := newCachedApp(t, &logs)

	err := execute(parse(t, "show-mapping", "missing"), a)
	require.Error(t, err)
	assert.Contains(t, logs.String(), "storage cache")
}

func TestExecute_ClosesAppOnSuccess(t *testing.T) {
	var logs bytes.Buffer
	a := newCachedApp(t, &logs)

	require.NoError(t, execute(parse(t, "list", "mappings"), a))
	assert.Contains(t, logs.String(), "storage cache")
}
