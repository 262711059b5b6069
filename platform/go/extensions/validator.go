package extensions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator compiles JSON Schemas once per key and validates documents against them.
type SchemaValidator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewSchemaValidator returns a validator with an empty schema cache.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{cache: make(map[string]*jsonschema.Schema)}
}

// Validate decodes document and checks it against schema, compiled under key.
func (v *SchemaValidator) Validate(key string, schema, document []byte) error {
	if len(document) == 0 {
		document = []byte("{}")
	}

	compiled, err := v.getOrCompile(key, schema)
	if err != nil {
		return err
	}

	var decoded any
	if err := json.Unmarshal(document, &decoded); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	if err := compiled.Validate(decoded); err != nil {
		return fmt.Errorf("validate %s: %w", key, err)
	}
	return nil
}

func (v *SchemaValidator) getOrCompile(key string, schema []byte) (*jsonschema.Schema, error) {
	url := "memory://extensions/" + key

	v.mu.RLock()
	compiled, ok := v.cache[url]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if compiled, ok = v.cache[url]; ok {
		return compiled, nil
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("register schema %s: %w", key, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", key, err)
	}

	v.cache[url] = compiled
	return compiled, nil
}
