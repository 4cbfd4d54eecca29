// Package extract pulls plain text out of source files. PDFs are read
// through their text layer first; when that yields too little text the
// caller may retry through a Recognizer. HTML is flattened to its text
// nodes, everything else is treated as plain text.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// ErrExtractionFailed is returned when no usable text could be obtained
// from a file by any available method.
var ErrExtractionFailed = errors.New("extraction failed")

// MinChars is the threshold below which a structural extraction is
// considered empty and recognition is attempted instead.
const MinChars = 100

// Result carries the extracted text and how it was obtained.
type Result struct {
	Text       string
	Recognized bool
}

// Extractor converts files into cleaned plain text.
type Extractor struct {
	recognizer Recognizer
}

// New returns an Extractor. recognizer may be nil; PDFs without a text
// layer then fail with ErrExtractionFailed.
func New(recognizer Recognizer) *Extractor {
	return &Extractor{recognizer: recognizer}
}

// File extracts text from path, dispatching on extension. The returned
// text is already cleaned.
func (e *Extractor) File(path string) (Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.pdfFile(path)
	case ".html", ".htm":
		text, err := htmlFile(path)
		if err != nil {
			return Result{}, err
		}
		return Result{Text: Clean(text)}, nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
		}
		return Result{Text: Clean(string(data))}, nil
	}
}

// pdfFile tries the text layer first and falls back to recognition when
// the layer is missing or too thin.
func (e *Extractor) pdfFile(path string) (Result, error) {
	text, layerErr := pdfTextLayer(path)
	if layerErr == nil {
		text = Clean(text)
		if len(text) >= MinChars {
			return Result{Text: text}, nil
		}
	}

	if e.recognizer == nil {
		if layerErr != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrExtractionFailed, layerErr)
		}
		return Result{}, fmt.Errorf("%w: text layer too short (%d chars)", ErrExtractionFailed, len(text))
	}

	recognized, err := e.recognizer.Recognize(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: recognition: %v", ErrExtractionFailed, err)
	}
	recognized = Clean(recognized)
	if len(recognized) < MinChars {
		return Result{}, fmt.Errorf("%w: recognition yielded %d chars", ErrExtractionFailed, len(recognized))
	}
	return Result{Text: recognized, Recognized: true}, nil
}

// pdfTextLayer reads every page's text layer. The pdf reader panics on
// some malformed files, so page reads are guarded.
func pdfTextLayer(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// htmlFile returns the concatenated text nodes of an HTML document,
// skipping script and style bodies.
func htmlFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	z := html.NewTokenizer(f)
	var b strings.Builder
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String(), nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			if t := strings.TrimSpace(string(z.Text())); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}
	}
}
