// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package shared

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// urlFile is the YAML batch format for shared-note downloads:
//
//	urls:
//	  - https://notes.granola.ai/d/...
//	  - https://notes.granola.ai/t/...
//
// A bare top-level list of URLs is accepted too.
type urlFile struct {
	URLs []string `yaml:"urls"`
}

// ReadURLFile loads shared-note URLs from a YAML file.
func ReadURLFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading URL file: %w", err)
	}

	var file urlFile
	if err := yaml.Unmarshal(data, &file); err == nil && len(file.URLs) > 0 {
		return file.URLs, nil
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing URL file %s: %w", path, err)
	}
	return list, nil
}
