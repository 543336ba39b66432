// Package extract converts acquired media into analyzable content:
// video becomes a transcript, images become base64 payloads for vision
// analysis, and text passes through with language detection.
package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/scdesign/factcheck/internal/acquire"
	"github.com/scdesign/factcheck/internal/lang"
	"github.com/scdesign/factcheck/internal/model"
)

// Transcriber is the speech-to-text capability
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (text, language string, err error)
}

// Content is what the verification engine consumes
type Content struct {
	Modality model.Modality
	// Text holds the raw text or transcript for text modalities
	Text string
	// ImageDataURL holds the base64 data URL for image modality
	ImageDataURL string
	// Language is the detected ISO 639-1 input language, empty when
	// undetermined
	Language string
}

// FromText wraps raw text with a statistical language detection pass
func FromText(text string) Content {
	return Content{
		Modality: model.ModalityText,
		Text:     text,
		Language: lang.Detect(text),
	}
}

// FromImage base64-encodes the image for direct vision submission.
// No extraction happens for images; language is determined later from
// the model's own analysis.
func FromImage(artifact *acquire.MediaArtifact) (Content, error) {
	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		return Content{}, fmt.Errorf("read image: %w", err)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(artifact.Path)))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	return Content{
		Modality:     model.ModalityImage,
		ImageDataURL: fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)),
	}, nil
}

// FromVideo demuxes the audio track and transcribes it. The temporary
// audio file is removed on every exit path; the source video stays
// owned by the caller.
func FromVideo(ctx context.Context, artifact *acquire.MediaArtifact, transcriber Transcriber) (Content, error) {
	audioPath := strings.TrimSuffix(artifact.Path, filepath.Ext(artifact.Path)) + "-audio.mp3"
	defer func() {
		if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
			slog.Warn("audio cleanup failed", "path", audioPath, "error", err)
		}
	}()

	if err := demuxAudio(ctx, artifact.Path, audioPath); err != nil {
		return Content{}, err
	}

	text, reported, err := transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return Content{}, fmt.Errorf("transcribe: %w", err)
	}
	if text == "" {
		return Content{}, fmt.Errorf("transcribe: empty transcript")
	}

	// The transcription model reports a language name; an independent
	// statistical pass over the transcript gives us the ISO code.
	code := lang.Detect(text)
	slog.Debug("video transcribed", "chars", len(text), "language", code, "reported", reported)

	return Content{
		Modality: model.ModalityTranscript,
		Text:     text,
		Language: code,
	}, nil
}

func demuxAudio(ctx context.Context, videoPath, audioPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", videoPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "4",
		audioPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("demux audio: %w: %s", err, lastLine(string(out)))
	}
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
