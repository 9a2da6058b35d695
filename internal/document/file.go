package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileParagraph is the on-disk shape of one paragraph in a YAML fixture.
type fileParagraph struct {
	Text  string `yaml:"text"`
	Label string `yaml:"label,omitempty"`
	Style string `yaml:"style,omitempty"`
}

type fileDocument struct {
	Title      string          `yaml:"title,omitempty"`
	Paragraphs []fileParagraph `yaml:"paragraphs"`
}

// LoadFile reads a document from disk. YAML files (.yaml/.yml) carry
// explicit paragraph records with optional list labels; anything else is
// treated as plain text, one paragraph per non-empty line.
func LoadFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read document: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return FromText(string(data)), nil
	}

	var fd fileDocument
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return nil, fmt.Errorf("invalid document file %s: %w", path, err)
	}
	paras := make([]Paragraph, len(fd.Paragraphs))
	for i, fp := range fd.Paragraphs {
		paras[i] = Paragraph{Text: fp.Text, ListLabel: fp.Label, Style: fp.Style}
	}
	return FromParagraphs(paras), nil
}

// SaveFile writes the document back out as YAML, preserving labels.
// Styled runs are flattened; only committed text survives a round-trip.
func (m *Memory) SaveFile(path string) error {
	fd := fileDocument{}
	for _, p := range m.paragraphs {
		fd.Paragraphs = append(fd.Paragraphs, fileParagraph{
			Text:  p.text(),
			Label: p.label,
			Style: p.style,
		})
	}
	data, err := yaml.Marshal(fd)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}
