package docload

import (
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

type docxLoader struct{}

func (docxLoader) Load(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat docx: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			sb.WriteString(it.String())
			sb.WriteString("\n")
		case *docx.Table:
			sb.WriteString(it.String())
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
