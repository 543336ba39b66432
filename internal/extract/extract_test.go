package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scdesign/factcheck/internal/acquire"
	"github.com/scdesign/factcheck/internal/model"
)

func TestFromText_DetectsLanguage(t *testing.T) {
	c := FromText("Le gouvernement a annoncé une nouvelle réforme des retraites pour l'année prochaine.")

	if c.Modality != model.ModalityText {
		t.Errorf("Expected text modality, got %s", c.Modality)
	}
	if c.Language != "fr" {
		t.Errorf("Expected fr, got %q", c.Language)
	}
}

func TestFromImage_ProducesDataURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(path, []byte{0x89, 0x50, 0x4E, 0x47}, 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := FromImage(&acquire.MediaArtifact{Path: path, Kind: acquire.KindImage})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if c.Modality != model.ModalityImage {
		t.Errorf("Expected image modality, got %s", c.Modality)
	}
	if !strings.HasPrefix(c.ImageDataURL, "data:image/png;base64,") {
		t.Errorf("Expected png data URL, got %.40q", c.ImageDataURL)
	}
}

func TestFromImage_MissingFile(t *testing.T) {
	_, err := FromImage(&acquire.MediaArtifact{Path: filepath.Join(t.TempDir(), "gone.jpg"), Kind: acquire.KindImage})
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
}
