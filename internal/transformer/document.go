package transformer

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"bydm/internal/assembler"
	"bydm/internal/diag"
	"bydm/internal/idoc"
	"bydm/internal/storage"
	"bydm/internal/utils"
)

// Status is the outcome of one document.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusFailed           Status = "failed"
	StatusValidationFailed Status = "validation_failed"
)

// timestampLayout names outputs and logs, e.g. customer_20240214_093000.json.
// Names taken earlier by the same service get a "-N" suffix.
const timestampLayout = "20060102_150405"

// FileResult reports what happened to one source document.
type FileResult struct {
	SourceFile string `json:"source_file"`
	Status     Status `json:"status"`
	OutputFile string `json:"output_file,omitempty"`
	LogFile    string `json:"log_file,omitempty"`
	Error      string `json:"error,omitempty"`
	Rejections int    `json:"rejections,omitempty"`
	Unmapped   int    `json:"unmapped_segments,omitempty"`
	// UnmappedFields counts fields without a rule inside mapped segments.
	UnmappedFields int `json:"unmapped_fields,omitempty"`
}

// OK reports whether the document produced output.
func (r FileResult) OK() bool { return r.Status == StatusSuccess }

// ProcessFile transforms a single source document. The returned error is
// only set when the run inputs could not be loaded; document failures are
// reported in the result.
func (s *Service) ProcessFile(ctx context.Context, source, configPath, templatePath string) (FileResult, error) {
	in, err := s.LoadRun(ctx, configPath, templatePath)
	if err != nil {
		return FileResult{}, err
	}
	source = resolvePath(s.settings.SourceFolder, source, "")
	return s.processDocument(ctx, source, in), nil
}

func (s *Service) processDocument(ctx context.Context, source string, in *Inputs) FileResult {
	started := s.now()
	base := s.names.Reserve(documentName(s.settings.SourceFolder, source) + "_" + started.Format(timestampLayout))
	result := FileResult{SourceFile: source}
	var unmapped map[string]int

	rec := diag.NewRecorder(s.now)
	sink := diag.Tee(rec, s.documentSink(source))

	finish := func(status Status, err error) FileResult {
		result.Status = status
		if err != nil {
			result.Error = err.Error()
		}
		sink.Emit(diag.Event{
			Kind:    diag.KindDocument,
			Level:   documentLevel(status),
			Message: summaryLine(result, unmapped, time.Since(started)),
		})
		result.LogFile = s.saveLog(ctx, base, rec, result)
		return result
	}

	if err := ctx.Err(); err != nil {
		return finish(StatusFailed, err)
	}
	raw, err := s.store.Get(ctx, source)
	if err != nil {
		return finish(StatusFailed, fmt.Errorf("load source: %w", err))
	}
	root, err := idoc.Parse(raw)
	if err != nil {
		return finish(StatusFailed, err)
	}

	res := assembler.Assemble(root, in.Config, in.Template, sink, assembler.Options{
		RootArrayField: s.settings.RootArrayField,
		Validator:      s.validator(),
	})
	result.Rejections = len(res.Rejections)
	unmapped = res.Unmapped
	result.UnmappedFields = rec.Count(diag.KindUnmappedField)
	for _, n := range res.Unmapped {
		result.Unmapped += n
	}

	if !res.AllValid && s.settings.BlockOnValidationFailure {
		return finish(StatusValidationFailed,
			fmt.Errorf("%w: %d rejected value(s), output not saved", ErrValidationFailed, len(res.Rejections)))
	}

	outPath := storage.Join(s.settings.TargetFolder, base+".json")
	if _, err := storage.SaveJSON(ctx, s.store, outPath, res.Output); err != nil {
		return finish(StatusFailed, fmt.Errorf("save output: %w", err))
	}
	result.OutputFile = outPath
	return finish(StatusSuccess, nil)
}

// saveLog persists the document's diagnostics as JSON lines. A log that
// cannot be written does not change the document outcome.
func (s *Service) saveLog(ctx context.Context, base string, rec *diag.Recorder, result FileResult) string {
	content, err := rec.JSONL()
	if err != nil {
		log.Printf("transform %s: encode log: %v", result.SourceFile, err)
		return ""
	}
	logPath := storage.Join(s.settings.LogFolder, "transform_"+base+".log")
	// Logs are written even after cancellation.
	if err := s.store.Put(context.WithoutCancel(ctx), logPath, content, storage.ContentTypeText); err != nil {
		log.Printf("transform %s: save log: %v", result.SourceFile, err)
		return ""
	}
	return logPath
}

// documentName derives the output name stem from the source path relative
// to folder, so equal file names in different subfolders stay apart.
func documentName(folder, source string) string {
	rel := source
	if prefix := strings.Trim(folder, "/"); prefix != "" {
		rel = strings.TrimPrefix(rel, prefix+"/")
	}
	if ext := path.Ext(rel); ext != "" {
		rel = strings.TrimSuffix(rel, ext)
	}
	return utils.SafeFileName(rel)
}

func summaryLine(r FileResult, unmapped map[string]int, took time.Duration) string {
	msg := fmt.Sprintf("%s %s in %s", r.SourceFile, r.Status, took.Round(time.Millisecond))
	if r.OutputFile != "" {
		msg += " -> " + r.OutputFile
	}
	if r.Rejections > 0 {
		msg += fmt.Sprintf(", %d rejected", r.Rejections)
	}
	if r.Unmapped > 0 {
		msg += fmt.Sprintf(", %d unmapped segment(s) [%s]", r.Unmapped,
			strings.Join(assembler.SortedKeys(unmapped), " "))
	}
	if r.Error != "" {
		msg += ": " + r.Error
	}
	return msg
}

func documentLevel(st Status) diag.Level {
	switch st {
	case StatusSuccess:
		return diag.LevelInfo
	case StatusValidationFailed:
		return diag.LevelWarn
	default:
		return diag.LevelError
	}
}
