package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"labqc/pkg/core/utils"
)

// LoadLibrary reads every *.hjson and *.json file under dir, each holding one
// Version, into a new registry. A missing directory yields an empty registry.
//
// Expected structure:
//
//	dir/
//	  v1-full-audit.hjson
//	  hematology/
//	    v2-cbc-focus.hjson
func LoadLibrary(dir string) (*Registry, error) {
	registry := NewRegistry()
	if dir == "" {
		return registry, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return registry, nil
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		ext := filepath.Ext(path)
		if info.IsDir() || (ext != ".hjson" && ext != ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		var v Version
		if err := utils.ParseHJSONToStruct(string(data), &v); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if v.ID == "" {
			v.ID = generateIDFromPath(path, dir)
		}

		if err := registry.Register(v); err != nil {
			return fmt.Errorf("failed to register %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt library: %w", err)
	}
	return registry, nil
}

// generateIDFromPath derives an id from the file name,
// e.g. "hematology/cbc_focus.hjson" -> "hematology.cbc_focus".
func generateIDFromPath(path string, baseDir string) string {
	relPath, _ := filepath.Rel(baseDir, path)
	relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath))
	return strings.ReplaceAll(relPath, string(filepath.Separator), ".")
}
