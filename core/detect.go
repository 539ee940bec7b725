package core

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/huangsam/perftimeline/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrNotCandidate marks valid JSON that matches neither source schema.
var ErrNotCandidate = errors.New("document is not a single-chat e2e record")

//go:embed schemas/*.json
var schemaFS embed.FS

// detectors are checked in order; the first schema that validates wins.
var detectors = []struct {
	kind schema.SchemaKind
	file string
}{
	{schema.AggregateSchema, "schemas/aggregate.json"},
	{schema.SingleRunSchema, "schemas/single_run.json"},
}

var (
	compiledOnce    sync.Once
	compiledSchemas []*jsonschema.Schema
	compileErr      error
)

// loadDetectors compiles the embedded schemas once per process.
func loadDetectors() ([]*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		for _, d := range detectors {
			data, err := schemaFS.ReadFile(d.file)
			if err != nil {
				compileErr = fmt.Errorf("read schema %s: %w", d.file, err)
				return
			}
			if err := compiler.AddResource(d.file, bytes.NewReader(data)); err != nil {
				compileErr = fmt.Errorf("add schema resource %s: %w", d.file, err)
				return
			}
		}
		for _, d := range detectors {
			sch, err := compiler.Compile(d.file)
			if err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", d.file, err)
				return
			}
			compiledSchemas = append(compiledSchemas, sch)
		}
	})
	return compiledSchemas, compileErr
}

// DetectSchema classifies a generically decoded JSON value.
// It returns ErrNotCandidate for any shape outside the two known schemas.
func DetectSchema(value any) (schema.SchemaKind, error) {
	schemas, err := loadDetectors()
	if err != nil {
		return "", err
	}
	for i, sch := range schemas {
		if sch.Validate(value) == nil {
			return detectors[i].kind, nil
		}
	}
	return "", ErrNotCandidate
}
