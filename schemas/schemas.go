// Package schemas validates API responses against JSON Schema documents addressed by name.
//
// Each schema is a draft-07 document in files/, named after the API call it describes. Shared
// definitions live in files/definitions.json and are referenced relative to it.
package schemas

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/ledgerkit/api-test-harness/framework/helpers"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/exp/slices"
)

//go:embed files/*.json
var schemaFiles embed.FS

const (
	schemaDir       = "files"
	schemaBaseURL   = "https://schemas.ledgerkit.dev/api/"
	definitionsName = "definitions"
)

// UnknownSchemaError is returned by Validate for a name that has no schema.
type UnknownSchemaError struct {
	Name string
}

func (e UnknownSchemaError) Error() string {
	return fmt.Sprintf("no schema named %q", e.Name)
}

// ValidationError means the value did not conform to the schema.
type ValidationError struct {
	Name string
	Err  error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("value does not match schema %q: %s", e.Name, e.Err)
}

func (e ValidationError) Unwrap() error { return e.Err }

type registry struct {
	compiler *jsonschema.Compiler
	compiled map[string]*jsonschema.Schema
	names    []string
	lock     sync.Mutex
}

var (
	defaultRegistry     *registry //nolint:gochecknoglobals
	defaultRegistryErr  error     //nolint:gochecknoglobals
	defaultRegistryOnce sync.Once //nolint:gochecknoglobals
)

func getRegistry() (*registry, error) {
	defaultRegistryOnce.Do(func() {
		defaultRegistry, defaultRegistryErr = newRegistry(schemaFiles)
	})
	return defaultRegistry, defaultRegistryErr
}

func newRegistry(files fs.FS) (*registry, error) {
	entries, err := fs.ReadDir(files, schemaDir)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	r := &registry{compiler: compiler, compiled: make(map[string]*jsonschema.Schema)}
	for _, entry := range entries {
		fileName := entry.Name()
		if entry.IsDir() || path.Ext(fileName) != ".json" {
			continue
		}
		data, err := fs.ReadFile(files, schemaDir+"/"+fileName)
		if err != nil {
			return nil, err
		}
		if err := compiler.AddResource(schemaBaseURL+fileName, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("invalid schema file %s: %w", fileName, err)
		}
		if name := strings.TrimSuffix(fileName, ".json"); name != definitionsName {
			r.names = append(r.names, name)
		}
	}
	r.names = helpers.Sorted(r.names)
	return r, nil
}

// schema compiles on first use; the compiler resolves references between files itself.
func (r *registry) schema(name string) (*jsonschema.Schema, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if s, ok := r.compiled[name]; ok {
		return s, nil
	}
	if !slices.Contains(r.names, name) {
		return nil, UnknownSchemaError{Name: name}
	}
	s, err := r.compiler.Compile(schemaBaseURL + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("could not compile schema %q: %w", name, err)
	}
	r.compiled[name] = s
	return s, nil
}

func (r *registry) validate(name string, value interface{}) error {
	s, err := r.schema(name)
	if err != nil {
		return err
	}
	doc, err := toJSONDocument(value)
	if err != nil {
		return err
	}
	if err := s.Validate(doc); err != nil {
		return ValidationError{Name: name, Err: err}
	}
	return nil
}

// toJSONDocument converts any value to the generic form the validator expects, keeping
// numbers exact.
func toJSONDocument(value interface{}) (interface{}, error) {
	var data []byte
	switch v := value.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		var err error
		if data, err = json.Marshal(value); err != nil {
			return nil, fmt.Errorf("value cannot be converted to JSON: %w", err)
		}
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("value is not valid JSON: %w", err)
	}
	return doc, nil
}

// Validate checks value against the schema with the given name. The value can be anything
// that encodes to JSON, or raw JSON bytes.
func Validate(name string, value interface{}) error {
	r, err := getRegistry()
	if err != nil {
		return err
	}
	return r.validate(name, value)
}

// Names returns the names of all available schemas, sorted.
func Names() []string {
	r, err := getRegistry()
	if err != nil {
		return nil
	}
	return append([]string(nil), r.names...)
}
