package config

// Masonfile represents the structure of the mason.yaml configuration file.
type Masonfile struct {
	Version  string   `yaml:"version"`
	Dest     string   `yaml:"dest"`
	Sources  []string `yaml:"sources"`
	Include  []string `yaml:"include"`
	Exclude  []string `yaml:"exclude"`
	Manifest string   `yaml:"manifest"`
	// Run lists commands executed for every copied file, as argument vectors.
	Run [][]string `yaml:"run"`
	// Env is added to the environment of every command.
	Env map[string]string `yaml:"env"`
}

// SupportedVersion is the configuration schema version understood by this loader.
const SupportedVersion = "1"
