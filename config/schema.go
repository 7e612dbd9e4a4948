package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "tapkey://config.schema.json"

const schemaText = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["backend", "media_key", "play_pause_key", "next_track_key", "prev_track_key", "long_press_key"],
  "properties": {
    "backend":        {"type": "string", "pattern": "^[a-z-]+$"},
    "media_key":      {"type": "string", "pattern": "^(raw|hid):"},
    "play_pause_key": {"type": "string", "minLength": 1},
    "next_track_key": {"type": "string", "minLength": 1},
    "prev_track_key": {"type": "string", "minLength": 1},
    "long_press_key": {"type": "string", "minLength": 1},
    "action_backend": {"type": "string"},
    "debounce_ms":        {"type": "integer", "minimum": 0, "maximum": 5000},
    "short_max_ms":       {"type": "integer", "minimum": 0, "maximum": 5000},
    "pressure_threshold": {"type": "number", "minimum": 0, "exclusiveMaximum": 1}
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, strings.NewReader(schemaText)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// validateSchema checks the decoded record in its JSON shape, whatever
// format it was read from.
func validateSchema(s *Settings) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
