// Package corpus reads the source text of the book from disk.
package corpus

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Text is the raw corpus assembled from one or more files.
type Text struct {
	Content string
	Sources []string
}

// Load reads every .txt and .pdf file matched by paths (plain paths or glob
// patterns) and joins their text with newlines. Other extensions are skipped.
func Load(paths ...string) (Text, error) {
	var out Text
	var b strings.Builder
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return Text{}, fmt.Errorf("bad corpus pattern %q: %w", p, err)
		}
		if matches == nil {
			if strings.ContainsAny(p, "*?[") {
				continue
			}
			matches = []string{p}
		}
		for _, m := range matches {
			var text string
			switch strings.ToLower(filepath.Ext(m)) {
			case ".txt", ".text":
				data, err := os.ReadFile(m)
				if err != nil {
					return Text{}, fmt.Errorf("read corpus: %w", err)
				}
				text = string(data)
			case ".pdf":
				text, err = readPDF(m)
				if err != nil {
					return Text{}, err
				}
			default:
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text)
			out.Sources = append(out.Sources, m)
		}
	}
	out.Content = b.String()
	return out, nil
}

func readPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	return buf.String(), nil
}
