// Package transformer runs IDoc documents through the mapping pipeline
// against a storage backend, one file at a time or as a bounded batch.
package transformer

import (
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"bydm/internal/diag"
	"bydm/internal/mapping"
	"bydm/internal/storage"
	"bydm/internal/utils"
	"bydm/internal/value"
)

// ErrValidationFailed marks documents whose output was withheld because
// values were rejected.
var ErrValidationFailed = errors.New("validation failed")

// Settings configures a Service.
type Settings struct {
	MappingFolder  string
	TemplateFolder string
	SourceFolder   string
	TargetFolder   string
	LogFolder      string

	BatchSize  int
	MaxWorkers int

	RootArrayField string
	TextPolicy     value.TextPolicy
	// BlockOnValidationFailure withholds the output of documents with
	// rejected values.
	BlockOnValidationFailure bool
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		MappingFolder:            "mappings",
		TemplateFolder:           "templates",
		SourceFolder:             "source",
		TargetFolder:             "target",
		LogFolder:                "logs",
		BatchSize:                100,
		MaxWorkers:               4,
		RootArrayField:           "location",
		BlockOnValidationFailure: true,
	}
}

// Service transforms documents held in a storage.Store.
type Service struct {
	store    storage.Store
	settings Settings
	sink     diag.Sink
	now      func() time.Time
	lenient  bool

	configs *lru.Cache[string, *mapping.Config]
	ids     *utils.UIDGenerator
	// names reserves output and log base names.
	names *utils.UIDGenerator
}

type Option func(*Service)

// WithClock replaces time.Now, for output names and log timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLenientMappings loads mapping files in lenient mode: unclassifiable
// entries are reported per document instead of failing the run.
func WithLenientMappings() Option {
	return func(s *Service) { s.lenient = true }
}

// New builds a service. A nil sink discards service-wide diagnostics; every
// document still keeps its own log.
func New(store storage.Store, settings Settings, sink diag.Sink, opts ...Option) *Service {
	def := DefaultSettings()
	if settings.BatchSize <= 0 {
		settings.BatchSize = def.BatchSize
	}
	if settings.MaxWorkers <= 0 {
		settings.MaxWorkers = def.MaxWorkers
	}
	if settings.RootArrayField == "" {
		settings.RootArrayField = def.RootArrayField
	}
	cache, _ := lru.New[string, *mapping.Config](64)
	s := &Service{
		store:    store,
		settings: settings,
		sink:     diag.OrDiscard(sink),
		now:      time.Now,
		configs:  cache,
		ids:      utils.NewUIDGenerator("batch"),
		names:    utils.NewUIDGenerator(""),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Settings returns the effective settings.
func (s *Service) Settings() Settings { return s.settings }

func (s *Service) validator() value.Validator {
	return value.Validator{Text: s.settings.TextPolicy}
}

// documentSink tags service-wide events with the source file when the sink
// supports it.
func (s *Service) documentSink(source string) diag.Sink {
	if sl, ok := s.sink.(*diag.SlogSink); ok {
		return sl.With(source)
	}
	return s.sink
}
