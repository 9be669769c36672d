package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
	"gopkg.in/yaml.v3"
)

// DefaultRootName is the class name given to the top-level object.
const DefaultRootName = "Root"

// DefaultMaxDepth mirrors the parser's nesting limit.
const DefaultMaxDepth = 500

// Config represents the complete configuration for pastecs
type Config struct {
	RootName string       `yaml:"root_name"`
	MaxDepth int          `yaml:"max_depth"`
	Types    TypesConfig  `yaml:"types"`
	Naming   NamingConfig `yaml:"naming"`
	Output   OutputConfig `yaml:"output"`
	Dev      DevConfig    `yaml:"dev"`
}

// TypesConfig controls type inference and mapping
type TypesConfig struct {
	// DetectSpecialStrings infers DateTime for timestamp-shaped strings and
	// Guid for UUID-shaped strings instead of plain string.
	DetectSpecialStrings bool          `yaml:"detect_special_strings"`
	Mappings             []TypeMapping `yaml:"mappings"`
}

// TypeMapping defines a pattern-based type mapping: fields whose JSON key
// matches Pattern get the given C# type regardless of the observed value.
type TypeMapping struct {
	Pattern string `yaml:"pattern"`
	Type    string `yaml:"type"`
	Using   string `yaml:"using,omitempty"`
	Comment string `yaml:"comment,omitempty"`

	// compiled regex (not serialized)
	regex *regexp.Regexp
}

// NamingConfig controls member naming
type NamingConfig struct {
	// CamelCaseMembers emits lowerCamelCase property names instead of the
	// default fully lower-cased JSON key.
	CamelCaseMembers bool              `yaml:"camel_case_members"`
	MemberMappings   map[string]string `yaml:"member_mappings"`
}

// OutputConfig controls declaration rendering
type OutputConfig struct {
	Namespace  string `yaml:"namespace"`
	FileHeader string `yaml:"file_header"`
	Indent     string `yaml:"indent"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug   bool `yaml:"debug"`
	Verbose bool `yaml:"verbose"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		RootName: DefaultRootName,
		MaxDepth: DefaultMaxDepth,
		Types: TypesConfig{
			DetectSpecialStrings: true,
			Mappings:             []TypeMapping{},
		},
		Naming: NamingConfig{
			CamelCaseMembers: false,
			MemberMappings:   make(map[string]string),
		},
		Output: OutputConfig{
			Indent: "    ",
		},
		Dev: DevConfig{
			Debug:   false,
			Verbose: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := NewConfig()

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.Output.Indent == "" {
		cfg.Output.Indent = "    "
	}

	// Compile regex patterns
	if err := cfg.compilePatterns(); err != nil {
		return nil, fmt.Errorf("failed to compile patterns: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".pastecs.yml", ".pastecs.yaml", "pastecs.yml", "pastecs.yaml"}

	// Start from current directory
	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		// Move up one directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// compilePatterns compiles all regex patterns in the config
func (c *Config) compilePatterns() error {
	for i := range c.Types.Mappings {
		mapping := &c.Types.Mappings[i]
		regex, err := regexp.Compile(mapping.Pattern)
		if err != nil {
			return fmt.Errorf("invalid type mapping pattern '%s': %w", mapping.Pattern, err)
		}
		mapping.regex = regex
	}
	return nil
}

// MatchesField checks if this type mapping matches the given JSON key
func (tm *TypeMapping) MatchesField(fieldName string) bool {
	if tm.regex == nil {
		// Try to compile if not already compiled (fallback)
		regex, err := regexp.Compile(tm.Pattern)
		if err != nil {
			return false
		}
		tm.regex = regex
	}
	return tm.regex.MatchString(fieldName)
}

// FindTypeMapping finds the first type mapping that matches the JSON key
func (c *Config) FindTypeMapping(fieldName string) (TypeMapping, bool) {
	for _, mapping := range c.Types.Mappings {
		if mapping.MatchesField(fieldName) {
			return mapping, true
		}
	}
	return TypeMapping{}, false
}

// GetMemberName returns the C# property name for a JSON key, applying
// naming rules. The default is the original tool's behaviour: the key
// lower-cased as-is.
func (c *Config) GetMemberName(jsonKey string) string {
	// Check custom mappings first
	if mapped, exists := c.Naming.MemberMappings[jsonKey]; exists {
		return mapped
	}

	if c.Naming.CamelCaseMembers {
		return strcase.ToLowerCamel(jsonKey)
	}

	return strings.ToLower(jsonKey)
}
