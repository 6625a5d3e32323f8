// Package fs reads documentation from a directory of markdown files. Each
// file may start with a YAML front matter block delimited by "---" lines
// carrying the document's metadata.
package fs

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/docs"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/loader"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Ensure Source implements loader.Source at compile time.
var _ loader.Source = (*Source)(nil)

const delimiter = "---"

type frontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Category    string   `yaml:"category"`
	Order       *int     `yaml:"order"`
}

// Source lists documents under root. A document's ID is its path relative
// to root, slash-separated, without the extension.
type Source struct {
	root string
	ext  string
}

// NewSource creates a Source for files ending in ext (".md" when empty).
func NewSource(root, ext string) *Source {
	if ext == "" {
		ext = ".md"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Source{root: root, ext: ext}
}

// List walks root and returns one record per document, sorted by the
// front matter order (documents without one last) and then by ID.
func (s *Source) List(ctx context.Context) ([]docs.Record, error) {
	var records []docs.Record
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != s.ext {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}
		fm, _, err := split(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", rel, err)
		}
		records = append(records, docs.Record{
			ID:          s.idFor(rel),
			Title:       fm.Title,
			Description: fm.Description,
			Tags:        fm.Tags,
			Category:    fm.Category,
			Order:       fm.Order,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing documents in %s: %w", s.root, err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		oi, oj := records[i].Order, records[j].Order
		switch {
		case oi != nil && oj != nil && *oi != *oj:
			return *oi < *oj
		case oi != nil && oj == nil:
			return true
		case oi == nil && oj != nil:
			return false
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// Content returns the body of document id with its front matter removed.
func (s *Source) Content(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := s.pathFor(id)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", apperrors.ErrDocumentNotFound, id)
		}
		return "", fmt.Errorf("reading %s: %w", id, err)
	}
	_, body, err := split(data)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", id, err)
	}
	return body, nil
}

func (s *Source) idFor(rel string) string {
	return filepath.ToSlash(strings.TrimSuffix(rel, s.ext))
}

func (s *Source) pathFor(id string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(id))
	if id == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: document id %q", apperrors.ErrInvalidInput, id)
	}
	return filepath.Join(s.root, clean+s.ext), nil
}

// split separates the front matter from the body. A file without a leading
// delimiter line has no front matter.
func split(data []byte) (frontMatter, string, error) {
	var fm frontMatter
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, delimiter+"\n") {
		return fm, text, nil
	}
	rest := text[len(delimiter)+1:]
	header, body, ok := closing(rest)
	if !ok {
		return fm, "", fmt.Errorf("unterminated front matter")
	}
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, "", fmt.Errorf("front matter: %w", err)
	}
	return fm, strings.TrimLeft(body, "\n"), nil
}

// closing cuts text at the first line that is exactly the delimiter. Lines
// like "----" or "---foo" belong to the header.
func closing(text string) (header, body string, ok bool) {
	for start := 0; start <= len(text); {
		line, next := text[start:], len(text)
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line, next = line[:i], start+i+1
		}
		if line == delimiter {
			return text[:start], text[next:], true
		}
		if next == len(text) {
			break
		}
		start = next
	}
	return "", "", false
}
