package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceMeta holds the optional YAML frontmatter of a section source file.
type SourceMeta struct {
	// Name overrides the filename-derived section name.
	Name string `yaml:"name"`
	// Priority is the static rank for this section.
	Priority int `yaml:"priority"`
	// Critical marks the section for integrity monitoring.
	Critical bool `yaml:"critical"`
}

// Source is one section source file: the full file content (frontmatter
// included, so downstream degradation can preserve it) plus parsed metadata.
type Source struct {
	Name     string
	Content  string
	Priority int
	Critical bool
	Path     string // source file path (for diagnostics and restore)
}

// LoadSources loads all .md files from the given directory as sections.
// Returns nil without error if the directory does not exist. Files whose
// frontmatter does not parse are kept with default metadata: a bad header
// never costs the section its place in the compilation.
func LoadSources(dir string) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	sources := make([]Source, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		src := Source{
			Name:    strings.TrimSuffix(entry.Name(), ".md"),
			Content: string(data),
			Path:    path,
		}

		if meta, ok := parseMeta(string(data)); ok {
			if meta.Name != "" {
				src.Name = meta.Name
			}
			src.Priority = meta.Priority
			src.Critical = meta.Critical
		}

		sources = append(sources, src)
	}

	return sources, nil
}

// parseMeta extracts frontmatter metadata without consuming it: the block
// stays part of the section content.
func parseMeta(content string) (SourceMeta, bool) {
	front, ok := splitFrontmatter(content)
	if !ok {
		return SourceMeta{}, false
	}

	var meta SourceMeta
	if err := yaml.Unmarshal([]byte(front), &meta); err != nil {
		return SourceMeta{}, false
	}
	return meta, true
}

// splitFrontmatter returns the YAML between the opening and closing "---"
// fences, if the content starts with one.
func splitFrontmatter(content string) (string, bool) {
	const delimiter = "---"

	if !strings.HasPrefix(content, delimiter) {
		return "", false
	}
	rest := content[len(delimiter):]
	if len(rest) == 0 || rest[0] != '\n' {
		return "", false
	}
	rest = rest[1:]

	idx := strings.Index(rest, "\n"+delimiter)
	if idx < 0 {
		return "", false
	}
	return rest[:idx], true
}
