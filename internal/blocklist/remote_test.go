package blocklist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ward/internal/blocklist"
)

func TestParseRemoteShapes(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  []string
		shape string
	}{
		{name: "flat array", raw: `["A", "B", 3, {"x": 1}]`, want: []string{"A", "B"}, shape: "string_array"},
		{name: "empty array", raw: `[]`, want: []string{}, shape: "string_array"},
		{name: "wrapper strings", raw: `{"artists": ["A"], "updated": "2026-01-01"}`, want: []string{"A"}, shape: "artists_wrapper"},
		{name: "wrapper objects", raw: `{"artists": [{"name": "A"}, {"name": "B"}]}`, want: []string{"A", "B"}, shape: "artists_wrapper"},
		{name: "name objects", raw: `[{"name": "A", "id": 1}, {"id": 2}]`, want: []string{"A"}, shape: "name_objects"},
		{name: "flatten values", raw: `{"k": ["A", ["nested"]]}`, want: []string{"A"}, shape: "flatten_values"},
		{name: "bare number", raw: `42`, want: nil, shape: ""},
		{name: "invalid", raw: `{"artists": [`, want: nil, shape: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := blocklist.ParseRemote([]byte(tt.raw))
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				assert.ElementsMatch(t, tt.want, got)
			}
			assert.Equal(t, tt.shape, blocklist.RemoteShape([]byte(tt.raw)))
		})
	}
}
