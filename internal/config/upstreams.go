package config

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// upstreamFile is the layout of the file named by UPSTREAM_SERVICES_FILE:
//
//	services:
//	  media: http://media:8081
//	  album: http://album:8083
type upstreamFile struct {
	Services map[string]string `yaml:"services"`
}

func loadUpstreamFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading upstream file: %w", err)
	}
	var f upstreamFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing upstream file: %w", err)
	}
	return f.Services, nil
}

// mergeUpstreams layers UPSTREAM_SERVICES entries over the file's entries.
func mergeUpstreams(fromFile, fromEnv map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(fromFile)+len(fromEnv))
	if err := mergo.Merge(&merged, fromFile); err != nil {
		return nil, fmt.Errorf("merging upstreams: %w", err)
	}
	if err := mergo.Merge(&merged, fromEnv, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merging upstreams: %w", err)
	}
	return merged, nil
}
