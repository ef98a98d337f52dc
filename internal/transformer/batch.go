package transformer

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"bydm/internal/storage"
)

// BatchReport summarizes a batch run. Results follow the sorted listing of
// the source folder.
type BatchReport struct {
	ID                    string       `json:"id"`
	SourceFolder          string       `json:"source_folder"`
	ConfigPath            string       `json:"config_path"`
	TemplatePath          string       `json:"template_path"`
	StartedAt             string       `json:"started_at"`
	Results               []FileResult `json:"results"`
	SuccessCount          int          `json:"success_count"`
	FailureCount          int          `json:"failure_count"`
	ValidationFailedCount int          `json:"validation_failed_count"`
	ReportFile            string       `json:"report_file,omitempty"`
}

// BatchProcess transforms every .xml document under folder. Documents run
// in chunks of BatchSize with at most MaxWorkers in flight. A failing
// document never stops its siblings; cancelling ctx stops submission and
// the documents not yet started are reported failed.
//
// The error is non-nil only when the run inputs cannot be loaded, before
// any document is touched, or when the source folder cannot be listed.
func (s *Service) BatchProcess(ctx context.Context, folder, configPath, templatePath string) (*BatchReport, error) {
	if strings.TrimSpace(folder) == "" {
		folder = s.settings.SourceFolder
	}
	files, err := s.ListSources(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	in, err := s.LoadRun(ctx, configPath, templatePath)
	if err != nil {
		return nil, err
	}

	started := s.now()
	report := &BatchReport{
		ID:           s.ids.Generate(folder + " " + started.Format(timestampLayout)),
		SourceFolder: folder,
		ConfigPath:   in.ConfigPath,
		TemplatePath: in.TemplatePath,
		StartedAt:    started.UTC().Format(time.RFC3339),
		Results:      make([]FileResult, len(files)),
	}
	log.Printf("batch %s: %d document(s) from %s (chunk=%d workers=%d)",
		report.ID, len(files), folder, s.settings.BatchSize, s.settings.MaxWorkers)

	submitted := s.runChunks(ctx, files, in, report.Results)
	for i := range files {
		if !submitted[i] {
			report.Results[i] = FileResult{
				SourceFile: files[i],
				Status:     StatusFailed,
				Error:      fmt.Sprintf("not processed: %v", context.Cause(ctx)),
			}
		}
	}
	report.tally()

	reportPath := storage.Join(s.settings.LogFolder, report.ID+".json")
	if _, err := storage.SaveJSON(context.WithoutCancel(ctx), s.store, reportPath, report); err != nil {
		log.Printf("batch %s: save report: %v", report.ID, err)
	} else {
		report.ReportFile = reportPath
	}
	log.Printf("batch %s: %d succeeded, %d failed, %d failed validation",
		report.ID, report.SuccessCount, report.FailureCount, report.ValidationFailedCount)
	return report, nil
}

// runChunks processes files and records which indexes were started.
func (s *Service) runChunks(ctx context.Context, files []string, in *Inputs, results []FileResult) []bool {
	submitted := make([]bool, len(files))
	for start := 0; start < len(files); start += s.settings.BatchSize {
		end := min(start+s.settings.BatchSize, len(files))

		var g errgroup.Group
		g.SetLimit(s.settings.MaxWorkers)
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				break
			}
			submitted[i] = true
			g.Go(func() error {
				results[i] = s.processDocument(ctx, files[i], in)
				return nil
			})
		}
		_ = g.Wait()
		if ctx.Err() != nil {
			break
		}
	}
	return submitted
}

func (r *BatchReport) tally() {
	r.SuccessCount, r.FailureCount, r.ValidationFailedCount = 0, 0, 0
	for _, res := range r.Results {
		switch res.Status {
		case StatusSuccess:
			r.SuccessCount++
		case StatusValidationFailed:
			r.ValidationFailedCount++
		default:
			r.FailureCount++
		}
	}
}

// hasExt reports whether p ends in one of exts, ignoring case.
func hasExt(p string, exts ...string) bool {
	lower := strings.ToLower(p)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func filterExt(paths []string, exts ...string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if hasExt(p, exts...) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
