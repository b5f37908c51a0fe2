package data

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/ledgerkit/api-test-harness/framework/helpers"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

//go:embed data-files
var dataFilesRoot embed.FS

const (
	dataBasePath      = "data-files"
	sharedConstsFile  = "constants.yaml"
	valuePropertyName = "value"
)

var (
	sharedConstants     substitutionSet //nolint:gochecknoglobals
	sharedConstantsErr  error           //nolint:gochecknoglobals
	sharedConstantsOnce sync.Once       //nolint:gochecknoglobals
)

// SourceInfo represents JSON or YAML data that was read from a file, after expanding constants
// and parameters. A file without parameters produces one SourceInfo; a parameterized file
// produces one per parameter set.
type SourceInfo struct {
	FilePath string
	BaseName string
	Params   map[string]ldvalue.Value
	Data     []byte
}

// ParseInto unmarshals the expanded data into target.
func (s SourceInfo) ParseInto(target interface{}) error {
	if err := ParseJSONOrYAML(s.Data, target); err != nil {
		return fmt.Errorf("error parsing %q %s: %w", s.BaseName, s.ParamsString(), err)
	}
	return nil
}

// Value returns the file's "value" property. Every fixture file keeps its payload there, so
// that the payload can be any JSON type and sit next to a "constants" block.
func (s SourceInfo) Value() (ldvalue.Value, error) {
	var doc ldvalue.Value
	if err := s.ParseInto(&doc); err != nil {
		return ldvalue.Null(), err
	}
	if doc.Type() != ldvalue.ObjectType {
		return ldvalue.Null(), fmt.Errorf("%q does not contain an object", s.BaseName)
	}
	value, ok := doc.TryGetByKey(valuePropertyName)
	if !ok {
		return ldvalue.Null(), fmt.Errorf("%q has no %q property", s.BaseName, valuePropertyName)
	}
	return value, nil
}

// ParamsString describes the parameter set, if any, for error messages and test names.
func (s SourceInfo) ParamsString() string {
	if len(s.Params) == 0 {
		return ""
	}
	ps := make([]string, 0, len(s.Params))
	for _, k := range helpers.SortedKeys(s.Params) {
		ps = append(ps, k+"="+s.Params[k].String())
	}
	return "(" + strings.Join(ps, ",") + ")"
}

// LoadDataFile reads a data file and performs any necessary constant/parameter substitutions.
// Constants defined in data-files/constants.yaml apply to every file; a file's own constants
// take precedence.
//
// The path parameter is relative to data/data-files.
func LoadDataFile(filePath string) ([]SourceInfo, error) {
	data, err := dataFilesRoot.ReadFile(dataBasePath + "/" + filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", filePath, err)
	}
	shared, err := loadSharedConstants()
	if err != nil {
		return nil, err
	}
	sources, err := expandSubstitutions(data, shared)
	if err != nil {
		return nil, fmt.Errorf("error reading %q: %w", filePath, err)
	}
	baseName := path.Base(filePath)
	for i := range sources {
		sources[i].FilePath = filePath
		sources[i].BaseName = baseName
	}
	return sources, nil
}

// LoadAllDataFiles reads every data file in a directory, in name order.
//
// The path parameter is relative to data/data-files.
func LoadAllDataFiles(dirPath string) ([]SourceInfo, error) {
	files, err := dataFilesRoot.ReadDir(dataBasePath + "/" + dirPath)
	if err != nil {
		return nil, err
	}
	var ret []SourceInfo
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		sources, err := LoadDataFile(dirPath + "/" + file.Name())
		if err != nil {
			return nil, err
		}
		ret = append(ret, sources...)
	}
	return ret, nil
}

// LoadValue reads a non-parameterized data file and returns its "value" property.
func LoadValue(filePath string) (ldvalue.Value, error) {
	sources, err := LoadDataFile(filePath)
	if err != nil {
		return ldvalue.Null(), err
	}
	if len(sources) != 1 {
		return ldvalue.Null(), fmt.Errorf("%q is parameterized; use LoadDataFile", filePath)
	}
	return sources[0].Value()
}

// MustLoadValue is LoadValue for fixtures that are known to exist; it panics on error.
func MustLoadValue(filePath string) ldvalue.Value {
	v, err := LoadValue(filePath)
	if err != nil {
		panic(err)
	}
	return v
}

// Constant returns the value of a shared constant as a string, for code that needs to agree
// with the fixtures, such as the account addresses the mock ledger knows about.
func Constant(name string) string {
	shared, err := loadSharedConstants()
	if err != nil {
		panic(err)
	}
	v, ok := shared[name]
	if !ok {
		panic(fmt.Sprintf("no shared constant %q", name))
	}
	if v.IsString() {
		return v.StringValue()
	}
	return v.JSONString()
}

func loadSharedConstants() (substitutionSet, error) {
	sharedConstantsOnce.Do(func() {
		data, err := dataFilesRoot.ReadFile(dataBasePath + "/" + sharedConstsFile)
		if err != nil {
			sharedConstantsErr = fmt.Errorf("failed to read shared constants: %w", err)
			return
		}
		var doc struct {
			Constants substitutionSet `json:"constants"`
		}
		if err := ParseJSONOrYAML(data, &doc); err != nil {
			sharedConstantsErr = fmt.Errorf("error parsing shared constants: %w", err)
			return
		}
		if len(doc.Constants) == 0 {
			sharedConstantsErr = errors.New("shared constants file defines no constants")
			return
		}
		sharedConstants = doc.Constants
	})
	return sharedConstants, sharedConstantsErr
}
