package scenario

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
)

// maxLineBytes bounds a single scenario line. Benchmark files are small;
// anything beyond this is a malformed export.
const maxLineBytes = 64 * 1024 * 1024

// LoadJSONL reads benchmark scenarios from a JSON-Lines file. Each line is
// one scenario object:
//
//	{
//	  "light_scenario_key": {"metadata": {"split": "...", ...}},
//	  "light_instances": [{"input": "...", "references": ["...", ...]}, ...]
//	}
//
// Metadata values must be primitives (string, number, bool); structured
// values are rejected because scenario keys must be hashable.
func LoadJSONL(path string) ([]Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scenario file %s: %w", path, err)
	}
	defer f.Close()

	var scenarios []Scenario
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		scenario, err := parseLine(line)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidScenario, "%s line %d: %v", path, lineNo, err)
		}
		scenarios = append(scenarios, scenario)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading scenario file %s: %w", path, err)
	}
	if len(scenarios) == 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidScenario, "%s contains no scenarios", path)
	}
	return scenarios, nil
}

func parseLine(line []byte) (Scenario, error) {
	var raw struct {
		Key struct {
			Metadata map[string]json.RawMessage `json:"metadata"`
		} `json:"light_scenario_key"`
		Instances []Instance `json:"light_instances"`
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return Scenario{}, fmt.Errorf("parsing scenario json: %w", err)
	}
	if len(raw.Key.Metadata) == 0 {
		return Scenario{}, fmt.Errorf("scenario has no key metadata")
	}

	key := Key{}
	for name, rawValue := range raw.Key.Metadata {
		switch name {
		case "split":
			value, err := primitiveString(rawValue)
			if err != nil {
				return Scenario{}, fmt.Errorf("metadata field %q: %w", name, err)
			}
			key.Split = value
		case "scenario_spec":
			spec, err := parseSpec(rawValue)
			if err != nil {
				return Scenario{}, err
			}
			key.Spec = spec
		default:
			value, err := primitiveString(rawValue)
			if err != nil {
				return Scenario{}, fmt.Errorf("metadata field %q: %w", name, err)
			}
			if key.Attributes == nil {
				key.Attributes = make(map[string]string)
			}
			key.Attributes[name] = value
		}
	}
	return Scenario{Key: key, Instances: raw.Instances}, nil
}

func parseSpec(raw json.RawMessage) (*Spec, error) {
	var rawSpec struct {
		ClassName string                     `json:"class_name"`
		Args      map[string]json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(raw, &rawSpec); err != nil {
		return nil, fmt.Errorf("parsing scenario_spec: %w", err)
	}
	if rawSpec.ClassName == "" {
		return nil, fmt.Errorf("scenario_spec has no class_name")
	}
	spec := &Spec{ClassName: rawSpec.ClassName}
	for name, rawValue := range rawSpec.Args {
		value, err := primitiveString(rawValue)
		if err != nil {
			return nil, fmt.Errorf("scenario_spec arg %q: %w", name, err)
		}
		if spec.Args == nil {
			spec.Args = make(map[string]string)
		}
		spec.Args[name] = value
	}
	return spec, nil
}

// primitiveString decodes a JSON value that must be a primitive and renders
// it as a string. Objects and arrays are rejected.
func primitiveString(raw json.RawMessage) (string, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", err
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10), nil
		}
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("structured value %s not allowed in scenario key", string(raw))
	}
}
