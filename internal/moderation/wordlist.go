package moderation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type wordList struct {
	Words []string `yaml:"words"`
}

// LoadWordList reads extra profane words from a YAML file of the form
//
//	words:
//	  - foo
//	  - bar
func LoadWordList(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	var wl wordList
	if err := yaml.Unmarshal(raw, &wl); err != nil {
		return nil, fmt.Errorf("parse word list %s: %w", path, err)
	}
	return lower(wl.Words), nil
}
