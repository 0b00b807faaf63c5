// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/deckminer/pkg/types"
)

// Loaded is a result document read back from disk.
type Loaded struct {
	Path   string
	Result types.DeckResult
}

// LoadResults reads the per-deck result documents under paths. Files and
// directories may be mixed; directories are walked recursively. Batch
// summaries are ignored, and JSON files that are not deck results are
// returned in skipped rather than failing the load.
func LoadResults(paths []string) (loaded []Loaded, skipped []string, err error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isResultFile(d.Name()) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	sort.Strings(files)

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var res types.DeckResult
		if err := json.Unmarshal(data, &res); err != nil {
			skipped = append(skipped, path)
			continue
		}
		loaded = append(loaded, Loaded{Path: path, Result: res})
	}
	return loaded, skipped, nil
}

func isResultFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json") &&
		!strings.HasPrefix(name, strings.TrimSuffix(SummaryFile, ".json"))
}
