package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Recognizer turns a scanned PDF into text when no text layer exists.
type Recognizer interface {
	Recognize(path string) (string, error)
}

// CommandRunner executes an external tool and returns its combined output.
// It exists so recognition can be tested without poppler and tesseract
// installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// TesseractRecognizer renders PDF pages to images with pdftoppm and runs
// tesseract over each page.
type TesseractRecognizer struct {
	Languages string        // tesseract -l argument, e.g. "rus+eng"
	DPI       int           // render resolution, 300 when zero
	Timeout   time.Duration // per-document budget, 5 minutes when zero
	runner    CommandRunner
}

// NewTesseractRecognizer returns a recognizer with default settings.
func NewTesseractRecognizer(languages string) *TesseractRecognizer {
	if languages == "" {
		languages = "rus+eng"
	}
	return &TesseractRecognizer{Languages: languages, runner: execRunner{}}
}

// Available reports whether both external tools are installed.
func (r *TesseractRecognizer) Available() error {
	for _, tool := range []string{"pdftoppm", "tesseract"} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found in PATH: %w", tool, err)
		}
	}
	return nil
}

// Recognize renders every page and concatenates the recognized text in
// page order. Pages that fail recognition are skipped.
func (r *TesseractRecognizer) Recognize(path string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	dpi := r.DPI
	if dpi <= 0 {
		dpi = 300
	}
	runner := r.runner
	if runner == nil {
		runner = execRunner{}
	}

	tmp, err := os.MkdirTemp("", "numbase-ocr-*")
	if err != nil {
		return "", fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	prefix := filepath.Join(tmp, "page")
	if out, err := runner.Run(ctx, "pdftoppm", "-png", "-r", fmt.Sprint(dpi), path, prefix); err != nil {
		return "", fmt.Errorf("rendering pages: %w: %s", err, strings.TrimSpace(string(out)))
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", fmt.Errorf("listing rendered pages: %w", err)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("no pages rendered from %s", filepath.Base(path))
	}
	sort.Strings(pages)

	var b strings.Builder
	for _, page := range pages {
		out, err := runner.Run(ctx, "tesseract", page, "stdout", "-l", r.Languages)
		if err != nil {
			continue
		}
		b.Write(out)
		b.WriteString("\n")
	}
	return b.String(), nil
}
