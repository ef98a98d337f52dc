package transformer

import (
	"context"
	"fmt"
	"hash/fnv"
	"path"
	"strings"

	"bydm/internal/mapping"
	"bydm/internal/storage"
)

// Inputs is the parsed mapping configuration and template shared by every
// document of a run. Both are read-only once loaded.
type Inputs struct {
	ConfigPath   string
	TemplatePath string
	Config       *mapping.Config
	Template     map[string]any
}

// LoadRun loads and parses the mapping configuration and template. Any
// failure is a *mapping.ConfigError and is fatal to the run.
func (s *Service) LoadRun(ctx context.Context, configPath, templatePath string) (*Inputs, error) {
	configPath = resolvePath(s.settings.MappingFolder, configPath, ".json")
	templatePath = resolvePath(s.settings.TemplateFolder, templatePath, ".json")

	cfg, err := s.loadConfig(ctx, configPath)
	if err != nil {
		return nil, err
	}
	template, err := storage.LoadJSONObject(ctx, s.store, templatePath)
	if err != nil {
		return nil, &mapping.ConfigError{Path: templatePath, Msg: "load template", Err: err}
	}
	return &Inputs{
		ConfigPath:   configPath,
		TemplatePath: templatePath,
		Config:       cfg,
		Template:     template,
	}, nil
}

// loadConfig parses a mapping file, reusing an earlier parse of identical
// content.
func (s *Service) loadConfig(ctx context.Context, configPath string) (*mapping.Config, error) {
	raw, err := s.store.Get(ctx, configPath)
	if err != nil {
		return nil, &mapping.ConfigError{Path: configPath, Msg: "load mapping", Err: err}
	}
	key := cacheKey(configPath, raw, s.lenient)
	if cfg, ok := s.configs.Get(key); ok {
		return cfg, nil
	}
	var opts []mapping.Option
	if s.lenient {
		opts = append(opts, mapping.WithLenient())
	}
	cfg, err := mapping.Parse(raw, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	s.configs.Add(key, cfg)
	return cfg, nil
}

func cacheKey(p string, raw []byte, lenient bool) string {
	h := fnv.New64a()
	_, _ = h.Write(raw)
	return fmt.Sprintf("%s@%016x/%t", p, h.Sum64(), lenient)
}

// resolvePath places a bare name inside folder and adds ext when the name
// has no extension. Paths that already name a folder are kept.
func resolvePath(folder, name, ext string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	if path.Ext(name) == "" && ext != "" {
		name += ext
	}
	if strings.Contains(name, "/") {
		return name
	}
	return storage.Join(folder, name)
}
