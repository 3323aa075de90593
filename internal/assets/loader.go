// Package assets loads brand guideline files that enrich prompt generation.
package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".text":     true,
}

// Loader reads creative guideline text files from a local directory.
type Loader struct {
	dir string
}

// NewLoader returns a loader rooted at dir. A missing directory is not an
// error; loading simply yields nothing.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// LoadTextAssets walks the assets directory and returns the content of every
// non-empty text file keyed by filename, in stable path order. Unreadable
// files are skipped so one broken asset never blocks a campaign.
func (l *Loader) LoadTextAssets() (map[string]string, error) {
	if l == nil || strings.TrimSpace(l.dir) == "" {
		return map[string]string{}, nil
	}
	if _, err := os.Stat(l.dir); err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("assets: stat %s: %w", l.dir, err)
	}

	assets := make(map[string]string)
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !textExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		content := string(data)
		if strings.TrimSpace(content) == "" {
			return nil
		}
		assets[d.Name()] = content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("assets: walk %s: %w", l.dir, err)
	}
	return assets, nil
}

// FormatForPrompt joins loaded assets into a single block suitable for
// inclusion in a text model prompt.
func FormatForPrompt(assets map[string]string) string {
	if len(assets) == 0 {
		return ""
	}
	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)

	sections := make([]string, 0, len(names))
	for _, name := range names {
		sections = append(sections, fmt.Sprintf("From %s:\n%s", name, strings.TrimSpace(assets[name])))
	}
	return strings.Join(sections, "\n\n")
}
