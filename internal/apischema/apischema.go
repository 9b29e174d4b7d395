// Package apischema compiles and validates the embedded JSON Schemas
// that describe the HTTP API's response bodies and the recorder's
// session manifest, so a caller can catch a malformed payload before
// it ever reaches the wire or disk.
package apischema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const randomResponseSchemaID = "openentropy://schema/random-response.json"

const randomResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["type", "length", "data", "success", "conditioned"],
  "properties": {
    "type": {"type": "string", "enum": ["hex16", "uint8", "uint16"]},
    "length": {"type": "integer", "minimum": 1, "maximum": 65536},
    "data": {},
    "success": {"type": "boolean"},
    "conditioned": {"type": "string", "enum": ["raw", "vonneumann", "sha256", "aesctrdrbg"]}
  }
}`

const healthResponseSchemaID = "openentropy://schema/health-response.json"

const healthResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["status", "sources_healthy", "sources_total", "raw_bytes", "output_bytes"],
  "properties": {
    "status": {"type": "string", "enum": ["healthy", "degraded"]},
    "sources_healthy": {"type": "integer", "minimum": 0},
    "sources_total": {"type": "integer", "minimum": 0},
    "raw_bytes": {"type": "integer", "minimum": 0},
    "output_bytes": {"type": "integer", "minimum": 0}
  }
}`

const sessionManifestSchemaID = "openentropy://schema/session-manifest.json"

const sessionManifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["pool_id", "started_at", "sources", "conditioning"],
  "properties": {
    "pool_id": {"type": "string"},
    "started_at": {"type": "string"},
    "ended_at": {"type": "string"},
    "sources": {"type": "array", "items": {"type": "string"}},
    "conditioning": {"type": "string"},
    "sample_count": {"type": "integer", "minimum": 0},
    "raw_bytes": {"type": "integer", "minimum": 0}
  }
}`

var (
	once     sync.Once
	compiled map[string]*jsonschema.Schema
	compErr  error
)

func compileAll() {
	compiler := jsonschema.NewCompiler()
	resources := map[string]string{
		randomResponseSchemaID:  randomResponseSchema,
		healthResponseSchemaID:  healthResponseSchema,
		sessionManifestSchemaID: sessionManifestSchema,
	}
	for id, raw := range resources {
		if err := compiler.AddResource(id, bytes.NewReader([]byte(raw))); err != nil {
			compErr = fmt.Errorf("apischema: add resource %s: %w", id, err)
			return
		}
	}

	compiled = make(map[string]*jsonschema.Schema, len(resources))
	for id := range resources {
		schema, err := compiler.Compile(id)
		if err != nil {
			compErr = fmt.Errorf("apischema: compile %s: %w", id, err)
			return
		}
		compiled[id] = schema
	}
}

func validate(schemaID string, v any) error {
	once.Do(compileAll)
	if compErr != nil {
		return compErr
	}
	schema := compiled[schemaID]

	// jsonschema validates decoded JSON values (map[string]any), not Go
	// structs directly, so round-trip through encoding/json first.
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("apischema: marshal: %w", err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("apischema: unmarshal: %w", err)
	}
	return schema.Validate(instance)
}

// ValidateRandomResponse checks v against /api/v1/random's schema.
func ValidateRandomResponse(v any) error { return validate(randomResponseSchemaID, v) }

// ValidateHealthResponse checks v against /health's schema.
func ValidateHealthResponse(v any) error { return validate(healthResponseSchemaID, v) }

// ValidateSessionManifest checks v against the recorder's session.json
// schema.
func ValidateSessionManifest(v any) error { return validate(sessionManifestSchemaID, v) }
