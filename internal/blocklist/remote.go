package blocklist

import (
	"bytes"
	"encoding/json"
)

// parseStrategy recognizes one remote catalog shape. ok is false when the
// payload is not that shape and the next strategy should run.
type parseStrategy struct {
	name  string
	parse func(raw []byte) (names []string, ok bool)
}

// remoteStrategies are tried in order; the first that recognizes the payload
// wins.
var remoteStrategies = []parseStrategy{
	{name: "string_array", parse: parseStringArray},
	{name: "artists_wrapper", parse: parseArtistsWrapper},
	{name: "name_objects", parse: parseNameObjects},
	{name: "flatten_values", parse: parseFlattenValues},
}

// ParseRemote extracts artist names from a catalog payload. Unrecognized or
// malformed payloads yield nil.
func ParseRemote(raw []byte) []string {
	names, _ := parseRemote(raw)
	return names
}

// RemoteShape reports which strategy recognized raw, or "" when none did.
func RemoteShape(raw []byte) string {
	_, shape := parseRemote(raw)
	return shape
}

func parseRemote(raw []byte) ([]string, string) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, ""
	}
	for _, s := range remoteStrategies {
		if names, ok := s.parse(raw); ok {
			return names, s.name
		}
	}
	return nil, ""
}

// parseStringArray accepts ["a", "b", ...]. Non-string items are skipped; an
// array holding no strings at all is left for parseNameObjects.
func parseStringArray(raw []byte) ([]string, bool) {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil, false
	}
	names := stringItems(items)
	if len(names) == 0 && len(items) > 0 {
		return nil, false
	}
	return names, true
}

// parseArtistsWrapper accepts {"artists": [...]} where the array holds strings
// or {name} objects.
func parseArtistsWrapper(raw []byte) ([]string, bool) {
	var wrapper struct {
		Artists json.RawMessage `json:"artists"`
	}
	if json.Unmarshal(raw, &wrapper) != nil || len(wrapper.Artists) == 0 {
		return nil, false
	}
	if names, ok := parseStringArray(wrapper.Artists); ok {
		return names, true
	}
	return parseNameObjects(wrapper.Artists)
}

// parseNameObjects accepts [{"name": "a"}, ...].
func parseNameObjects(raw []byte) ([]string, bool) {
	var items []struct {
		Name any `json:"name"`
	}
	if json.Unmarshal(raw, &items) != nil {
		return nil, false
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.Name.(string); ok {
			names = append(names, s)
		}
	}
	return names, true
}

// parseFlattenValues accepts any object and collects its string values,
// flattening array values one level.
func parseFlattenValues(raw []byte) ([]string, bool) {
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return nil, false
	}
	var names []string
	for _, value := range obj {
		var s string
		if json.Unmarshal(value, &s) == nil {
			names = append(names, s)
			continue
		}
		var items []json.RawMessage
		if json.Unmarshal(value, &items) == nil {
			names = append(names, stringItems(items)...)
		}
	}
	return names, true
}

func stringItems(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}
