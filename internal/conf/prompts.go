package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PromptsConfig contains all prompt configurations loaded from YAML
type PromptsConfig struct {
	Confirm ConfirmPrompts `yaml:"confirm"`
}

// ConfirmPrompts contains the confirmation stage prompts
type ConfirmPrompts struct {
	SystemPrompt string `yaml:"system_prompt"`
}

// LoadPromptsConfig loads prompts configuration from a YAML file. With no
// file found the compiled-in defaults are returned, never an error.
func LoadPromptsConfig(configPath string) (*PromptsConfig, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/prompts.yaml",
			"./configs/prompts.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "prompts.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	var err error

	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	if data == nil {
		fmt.Println("[Config] No prompts.yaml found, using defaults")
		return &PromptsConfig{}, nil
	}

	fmt.Printf("[Config] Loading prompts from: %s\n", loadedPath)

	var cfg PromptsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Printf("[Config] Failed to parse %s: %v, using defaults\n", loadedPath, err)
		return &PromptsConfig{}, nil
	}
	return &cfg, nil
}
