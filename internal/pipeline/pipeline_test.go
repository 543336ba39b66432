package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/scdesign/factcheck/internal/acquire"
	"github.com/scdesign/factcheck/internal/llm"
	"github.com/scdesign/factcheck/internal/model"
	"github.com/scdesign/factcheck/internal/task"
)

const validReport = `<div class="fact-check" lang="en">
    <h2 class="result">ACCURATE</h2>
    <section class="analysis">
        <h3>Conclusion:</h3>
        <p>The claim is well supported.</p>
    </section>
    <section class="sources">
        <h3>Sources:</h3>
        <ul>
            <li><a href="https://example.org/report">Example report</a></li>
        </ul>
    </section>
    <section class="findings">
        <h3>Findings:</h3>
        <ul>
            <li>
                <span class="claim-text">Water boils at 100C at sea level.</span>
                <span class="accuracy">Accurate</span>
                <p class="explanation">Standard physics.</p>
            </li>
        </ul>
    </section>
</div>`

type stubBackend struct {
	reply string
}

func (s *stubBackend) Chat(ctx context.Context, system, user string) (string, error) {
	return s.reply, nil
}

func (s *stubBackend) ChatImage(ctx context.Context, system, user, imageURL string) (string, error) {
	return s.reply, nil
}

func (s *stubBackend) ChatSearch(ctx context.Context, system, user string) (string, error) {
	return s.reply, nil
}

func (s *stubBackend) Transcribe(ctx context.Context, path string) (string, string, error) {
	return "transcribed speech", "en", nil
}

func (s *stubBackend) Models() model.ModelsUsed {
	return model.ModelsUsed{FactCheck: "stub-model"}
}

func newTestPipeline(t *testing.T, backend llm.Capability) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.Acquire.UploadDir = t.TempDir()
	cfg.WebSearch.Enabled = false
	cfg.Validate.Enabled = false

	p := New(cfg, task.NewTracker(task.NewMemoryStore(time.Minute)))
	p.newClient = func(apiKey string) (llm.Capability, error) {
		if backend == nil {
			return nil, llm.ErrNoCredential
		}
		return backend, nil
	}
	return p
}

func TestCheckTextProducesReport(t *testing.T) {
	p := newTestPipeline(t, &stubBackend{reply: validReport})

	result := p.CheckText(context.Background(), "Water boils at 100C at sea level.", Options{})
	if result.Report == nil {
		t.Fatal("expected a report")
	}
	if result.Report.Verdict != model.VerdictAccurate {
		t.Fatalf("verdict = %q, want %q", result.Report.Verdict, model.VerdictAccurate)
	}
	if result.Report.ModelsUsed.FactCheck != "stub-model" {
		t.Fatalf("models used = %+v", result.Report.ModelsUsed)
	}
	if result.Transcription != "" {
		t.Fatalf("text path should not set a transcription, got %q", result.Transcription)
	}
}

func TestCheckTextWithoutCredentialDegrades(t *testing.T) {
	p := newTestPipeline(t, nil)

	result := p.CheckText(context.Background(), "some claim", Options{})
	if result.Report == nil || !result.Report.IsError() {
		t.Fatalf("expected an error report, got %+v", result.Report)
	}
}

func TestDispatchImageRunsSynchronously(t *testing.T) {
	p := newTestPipeline(t, &stubBackend{reply: validReport})

	path := filepath.Join(t.TempDir(), "post.jpg")
	if err := os.WriteFile(path, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	artifact := &acquire.MediaArtifact{Path: path, Kind: acquire.KindImage}

	outcome := p.Dispatch(context.Background(), artifact, Options{})
	if outcome.TaskID != "" {
		t.Fatalf("image dispatch should be synchronous, got task %q", outcome.TaskID)
	}
	if outcome.Result == nil || outcome.Result.Report == nil {
		t.Fatal("expected an immediate result")
	}
	if outcome.Result.Report.Verdict != model.VerdictAccurate {
		t.Fatalf("verdict = %q", outcome.Result.Report.Verdict)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("artifact should be removed after processing")
	}
}

func TestDispatchVideoDetachesIntoTask(t *testing.T) {
	p := newTestPipeline(t, nil)

	path := filepath.Join(t.TempDir(), "post.mp4")
	if err := os.WriteFile(path, []byte("mp4-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	artifact := &acquire.MediaArtifact{Path: path, Kind: acquire.KindVideo}

	outcome := p.Dispatch(context.Background(), artifact, Options{})
	if outcome.TaskID == "" {
		t.Fatal("video dispatch should return a task handle")
	}
	if outcome.Result != nil {
		t.Fatal("video dispatch should not block on a result")
	}

	deadline := time.After(2 * time.Second)
	for {
		tk, ok := p.tracker.Get(outcome.TaskID)
		if !ok {
			t.Fatal("task disappeared")
		}
		if tk.Status != model.TaskProcessing {
			if tk.Status != model.TaskCompleted {
				t.Fatalf("status = %q, error = %q", tk.Status, tk.Error)
			}
			if tk.Result == nil || tk.Result.Report == nil || !tk.Result.Report.IsError() {
				t.Fatal("credential-less video task should finish with an error report")
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("task never finished")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSaveUploadRejectsUnknownExtension(t *testing.T) {
	p := newTestPipeline(t, nil)

	_, err := p.SaveUpload("notes.txt", strings.NewReader("hello"))
	var verr *acquire.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want validation error, got %v", err)
	}
}
