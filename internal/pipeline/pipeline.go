// Package pipeline wires acquisition, extraction, verification, and
// augmentation into one flow, and decides per modality whether a
// request runs synchronously or detaches into a background task.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/scdesign/factcheck/internal/acquire"
	"github.com/scdesign/factcheck/internal/extract"
	"github.com/scdesign/factcheck/internal/llm"
	"github.com/scdesign/factcheck/internal/model"
	"github.com/scdesign/factcheck/internal/search"
	"github.com/scdesign/factcheck/internal/task"
	"github.com/scdesign/factcheck/internal/validate"
	"github.com/scdesign/factcheck/internal/verify"
)

// Options carries per-request settings through the pipeline
type Options struct {
	// APIKey is the resolved credential (caller-supplied or server
	// default); empty means none was available
	APIKey            string
	UseWebSearch      bool
	PreferredLanguage string
}

// Outcome is either an immediate result or a task handle, depending on
// the modality's dispatch policy
type Outcome struct {
	TaskID string
	Result *model.TaskResult
}

// Pipeline orchestrates the full verification flow
type Pipeline struct {
	cfg       *model.Config
	acquirer  *acquire.Acquirer
	tracker   *task.Tracker
	validator *validate.Validator
	async     map[acquire.MediaKind]bool
	// newClient is the capability factory, replaceable in tests
	newClient func(apiKey string) (llm.Capability, error)
}

// New builds the pipeline from configuration
func New(cfg *model.Config, tracker *task.Tracker) *Pipeline {
	async := make(map[acquire.MediaKind]bool)
	for _, m := range cfg.Server.AsyncModalities {
		async[acquire.MediaKind(m)] = true
	}

	var validator *validate.Validator
	if cfg.Validate.Enabled {
		validator = validate.NewValidator(cfg.Validate, cfg.Acquire.UserAgent)
	}

	return &Pipeline{
		cfg:       cfg,
		acquirer:  acquire.New(cfg.Acquire),
		tracker:   tracker,
		validator: validator,
		async:     async,
		newClient: func(apiKey string) (llm.Capability, error) {
			client, err := llm.NewClient(apiKey, cfg)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

// AcquireURL fetches the media behind a post URL
func (p *Pipeline) AcquireURL(ctx context.Context, rawURL string) (*acquire.MediaArtifact, error) {
	return p.acquirer.AcquireURL(ctx, rawURL)
}

// SaveUpload persists a direct upload
func (p *Pipeline) SaveUpload(filename string, r io.Reader) (*acquire.MediaArtifact, error) {
	acquire.PurgeStale(p.cfg.Acquire.UploadDir, p.cfg.Acquire.FileMaxAge)
	return acquire.SaveUpload(p.cfg.Acquire.UploadDir, filename, r, p.cfg.Acquire.AllowedExtensions)
}

// Dispatch routes an acquired artifact through the per-modality policy
// table: async modalities return a task handle immediately, the rest
// block until the result is ready. Ownership of the artifact passes to
// the processing side either way.
func (p *Pipeline) Dispatch(ctx context.Context, artifact *acquire.MediaArtifact, opts Options) *Outcome {
	if p.async[artifact.Kind] {
		id := p.tracker.Submit(func(ctx context.Context) (*model.TaskResult, error) {
			return p.Process(ctx, artifact, opts)
		})
		return &Outcome{TaskID: id}
	}

	result, err := p.Process(ctx, artifact, opts)
	if err != nil {
		// Process only errors on extraction failures; verification
		// itself always degrades to a report.
		result = &model.TaskResult{Report: verify.ErrorReport(err.Error())}
	}
	return &Outcome{Result: result}
}

// Process runs extraction, verification, augmentation, and source
// validation for one artifact. The artifact is consumed: it is removed
// on every exit path.
func (p *Pipeline) Process(ctx context.Context, artifact *acquire.MediaArtifact, opts Options) (*model.TaskResult, error) {
	defer artifact.Cleanup()

	backend := p.resolveBackend(opts)

	var content extract.Content
	switch artifact.Kind {
	case acquire.KindVideo:
		if backend == nil {
			return &model.TaskResult{Report: verify.ErrorReport("no API credential available for transcription")}, nil
		}
		var err error
		content, err = extract.FromVideo(ctx, artifact, backend)
		if err != nil {
			return nil, err
		}
	case acquire.KindImage:
		var err error
		content, err = extract.FromImage(artifact)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("unsupported media kind")
	}

	return p.verifyContent(ctx, content, backend, opts), nil
}

// CheckText runs the synchronous text path
func (p *Pipeline) CheckText(ctx context.Context, text string, opts Options) *model.TaskResult {
	return p.verifyContent(ctx, extract.FromText(text), p.resolveBackend(opts), opts)
}

func (p *Pipeline) resolveBackend(opts Options) llm.Capability {
	backend, err := p.newClient(opts.APIKey)
	if err != nil {
		if !errors.Is(err, llm.ErrNoCredential) {
			slog.Error("capability init failed", "error", err)
		}
		return nil
	}
	return backend
}

func (p *Pipeline) verifyContent(ctx context.Context, content extract.Content, backend llm.Capability, opts Options) *model.TaskResult {
	engine := verify.NewEngine(backend, p.cfg.Verify)
	report := engine.Verify(ctx, verify.Request{
		Modality:          content.Modality,
		Text:              content.Text,
		ImageDataURL:      content.ImageDataURL,
		DetectedLanguage:  content.Language,
		PreferredLanguage: opts.PreferredLanguage,
	})
	if report.DetectedLanguage == "" {
		report.DetectedLanguage = content.Language
	}

	result := &model.TaskResult{
		Report:     report,
		ModelsUsed: report.ModelsUsed,
	}
	if content.Modality == model.ModalityTranscript {
		result.Transcription = content.Text
	}

	if opts.UseWebSearch && p.cfg.WebSearch.Enabled && backend != nil && !report.IsError() && content.Text != "" {
		result.SearchResults = search.NewAugmenter(backend).Augment(ctx, content.Text)
	}

	if p.validator != nil && !report.IsError() {
		result.SourceChecks = p.validator.Check(ctx, report.Sources)
	}

	return result
}
