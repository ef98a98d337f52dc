package transformer

import (
	"context"

	"bydm/internal/mapping"
	"bydm/internal/storage"
)

// ListMappings returns the mapping files in the mapping folder.
func (s *Service) ListMappings(ctx context.Context) ([]string, error) {
	return s.list(ctx, s.settings.MappingFolder, ".json", ".yaml", ".yml")
}

// ListTemplates returns the template files in the template folder.
func (s *Service) ListTemplates(ctx context.Context) ([]string, error) {
	return s.list(ctx, s.settings.TemplateFolder, ".json")
}

// ListSources returns the IDoc files under folder, or under the source
// folder when folder is empty.
func (s *Service) ListSources(ctx context.Context, folder string) ([]string, error) {
	if folder == "" {
		folder = s.settings.SourceFolder
	}
	return s.list(ctx, folder, ".xml")
}

func (s *Service) list(ctx context.Context, folder string, exts ...string) ([]string, error) {
	paths, err := s.store.List(ctx, folder)
	if err != nil {
		return nil, err
	}
	return filterExt(paths, exts...), nil
}

// MappingDocument is a stored mapping file with its parsed form.
type MappingDocument struct {
	Path   string
	Raw    any
	Config *mapping.Config
	Stats  mapping.Stats
}

// GetMapping loads a mapping by name. A bare name is looked up in the
// mapping folder and ".json" is added when no extension is given.
func (s *Service) GetMapping(ctx context.Context, name string) (*MappingDocument, error) {
	p := resolvePath(s.settings.MappingFolder, name, ".json")
	cfg, err := s.loadConfig(ctx, p)
	if err != nil {
		return nil, err
	}
	doc := &MappingDocument{Path: p, Config: cfg, Stats: cfg.Stats()}
	if hasExt(p, ".json") {
		if raw, err := storage.LoadJSON(ctx, s.store, p); err == nil {
			doc.Raw = raw
		}
	}
	return doc, nil
}
