package data

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

type substitutionSet map[string]ldvalue.Value

func (s substitutionSet) mergedWith(overrides substitutionSet) substitutionSet {
	ret := make(substitutionSet, len(s)+len(overrides))
	for k, v := range s {
		ret[k] = v
	}
	for k, v := range overrides {
		ret[k] = v
	}
	return ret
}

// expandSubstitutions replaces "<NAME>" placeholders using the file's own "constants" block
// layered over the shared constants, and if the file has a "parameters" block, produces one
// result per parameter set. Parameters may themselves refer to constants.
func expandSubstitutions(originalData []byte, shared substitutionSet) ([]SourceInfo, error) {
	var substs struct {
		Constants  substitutionSet   `json:"constants"`
		Parameters []json.RawMessage `json:"parameters"`
	}
	if err := ParseJSONOrYAML(originalData, &substs); err != nil {
		return nil, err
	}
	constants := shared.mergedWith(substs.Constants)
	parameterSets, err := makeParameterPermutations(substs.Parameters)
	if err != nil {
		return nil, err
	}
	if len(parameterSets) == 0 {
		return []SourceInfo{
			{Data: replaceVariables(originalData, constants)},
		}, nil
	}
	ret := make([]SourceInfo, 0, len(parameterSets))
	for _, paramsSet := range parameterSets {
		transformed := replaceVariables(originalData, constants)
		transformed = replaceVariables(transformed, paramsSet)
		transformed = replaceVariables(transformed, constants)
		ret = append(ret, SourceInfo{Data: transformed, Params: paramsSet})
	}
	return ret, nil
}

// makeParameterPermutations accepts either a list of parameter sets, or a list of lists whose
// cartesian product is taken.
func makeParameterPermutations(paramsData []json.RawMessage) ([]substitutionSet, error) {
	if len(paramsData) == 0 {
		return nil, nil
	}
	allData, _ := json.Marshal(paramsData)
	switch ldvalue.Parse(paramsData[0]).Type() {
	case ldvalue.ObjectType:
		var list []substitutionSet
		if err := json.Unmarshal(allData, &list); err != nil {
			return nil, err
		}
		return list, nil
	case ldvalue.ArrayType:
	default:
		return nil, errors.New("unable to parse parameters - must be an array of objects or an array of arrays")
	}
	var lists [][]substitutionSet
	if err := json.Unmarshal(allData, &lists); err != nil {
		return nil, err
	}
	for _, l := range lists {
		if len(l) == 0 {
			return nil, errors.New("unable to parse parameters - nested parameter lists cannot be empty")
		}
	}
	indices := make([]int, len(lists))
	var result []substitutionSet
	for {
		mergedSet := make(substitutionSet)
		for i, l := range lists {
			for k, v := range l[indices[i]] {
				mergedSet[k] = v
			}
		}
		result = append(result, mergedSet)
		incrementPos := 0
		for incrementPos < len(lists) {
			indices[incrementPos]++
			if indices[incrementPos] < len(lists[incrementPos]) {
				break
			}
			indices[incrementPos] = 0
			incrementPos++
		}
		if incrementPos == len(lists) {
			return result, nil
		}
	}
}

// replaceVariables substitutes a quoted "<NAME>" with the constant's JSON value, so that
// numbers and objects keep their type, and an unquoted <NAME> inside a longer string with the
// plain string form.
func replaceVariables(originalData []byte, substs substitutionSet) []byte {
	str := string(originalData)
	str = strings.ReplaceAll(str, `\u003c`, "<")
	str = strings.ReplaceAll(str, `\u003e`, ">")
	for name, value := range substs {
		typedValueStr := value.JSONString()
		str = strings.ReplaceAll(str, `"<`+name+`>"`, typedValueStr)
		interpolatedValueStr := typedValueStr
		if value.IsString() {
			interpolatedValueStr = value.StringValue()
		}
		str = strings.ReplaceAll(str, "<"+name+">", interpolatedValueStr)
	}
	return []byte(str)
}
