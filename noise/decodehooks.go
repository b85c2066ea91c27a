package noise

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Unmarshals a yaml list of noise entries into the container.
func (c *Container) UnmarshalYAML(unmarshal func(interface{}) error) error {
	// Temporary structure to unmarshal the yaml file
	var unmarshaledYaml []map[string]interface{}
	if err := unmarshal(&unmarshaledYaml); err != nil {
		return err
	}

	for _, yamlEntry := range unmarshaledYaml {
		n, err := createNoiseFromYamlEntry(yamlEntry)
		if err != nil {
			return err
		}
		c.Add(n)
	}

	return nil
}

// Returns a DecodeHookFunc that builds a Container from a list of entries when
// decoding with mapstructure, e.g. from a generic config map.
func GetDecodeHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(Container{}) {
			// Otherwise, return the entry as is (default behaviour)
			return data, nil
		}

		entries, ok := data.([]interface{})
		if !ok {
			return nil, fmt.Errorf("expected a list of noise entries, got %T", data)
		}

		container := Container{}
		for _, entry := range entries {
			n, err := createNoiseFromYamlEntry(entry)
			if err != nil {
				return nil, err
			}
			container.Add(n)
		}
		return container, nil
	}
}

// Creates a noise source from a yaml entry based on the "type" (or "Type") field.
func createNoiseFromYamlEntry(yamlEntry interface{}) (NoiseInterface, error) {
	m, err := stringKeyed(yamlEntry)
	if err != nil {
		return nil, err
	}

	// must check both m["type"] and m["Type"] because some yaml parsers convert to lower case and some don't
	typeStr, ok := m["type"].(string)
	if !ok {
		typeStr, ok = m["Type"].(string)
		if !ok {
			return nil, errors.New("noise type field is missing or not a string")
		}
	}

	switch typeStr {
	case "jitter":
		var params JitterParams
		if err := decodeParams(&params, m); err != nil {
			return nil, err
		}
		return NewJitterNoise(params)
	case "ripple":
		var params RippleParams
		if err := decodeParams(&params, m); err != nil {
			return nil, err
		}
		return NewRippleNoise(params)
	case "spike":
		var params SpikeParams
		if err := decodeParams(&params, m); err != nil {
			return nil, err
		}
		return NewSpikeNoise(params)
	default:
		return nil, fmt.Errorf("unknown noise type: %s", typeStr)
	}
}

// Use mapstructure to decode an entry into noise parameters. Keys are matched
// case-insensitively; the type key is not a parameter.
func decodeParams[T any](params *T, m map[string]interface{}) error {
	decoderConfig := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true, // allows integer magnitudes such as "Magnitude: 0"
		Result:           params,
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return err
	}
	return decoder.Decode(m)
}

// yaml.v2 produces map[interface{}]interface{} for nested maps.
func stringKeyed(entry interface{}) (map[string]interface{}, error) {
	switch m := entry.(type) {
	case map[string]interface{}:
		return m, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("noise entry cannot be parsed to map[string]interface{}: %v", entry)
	}
}
