package generate

import (
	"reflect"
	"testing"
)

func TestExtractParamNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		segment  string
		expected []string
		wantErr  bool
	}{
		{name: "no params", segment: "users", expected: []string{}},
		{name: "one param", segment: "{deviceID}", expected: []string{"deviceID"}},
		{name: "param with regex", segment: "{id:[0-9]+}", expected: []string{"id"}},
		{name: "param with suffix", segment: "{metric}.svg", expected: []string{"metric"}},
		{name: "two params in one segment", segment: "{from}-{to}", expected: []string{"from", "to"}},
		{name: "mismatched brackets", segment: "{from}-{to", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ExtractParamNames(tt.segment)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractParamNames(%q) error = %v, wantErr %v", tt.segment, err, tt.wantErr)
			}

			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ExtractParamNames(%q) = %v, want %v", tt.segment, got, tt.expected)
			}
		})
	}
}

func TestSanitizePath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                    "/",
		"/":                   "/",
		"//api//sensor-data/": "/api/sensor-data",
		"/api/ping":           "/api/ping",
	}

	for in, want := range tests {
		if got := SanitizePath(in); got != want {
			t.Errorf("SanitizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNameValidation(t *testing.T) {
	t.Parallel()

	params := map[string]bool{
		"metric":    true,
		"device_ID": true,
		"a1":        true,
		"1a":        false,
		"_a":        false,
		"a-b":       false,
		"":          false,
	}

	for name, want := range params {
		if got := IsValidParameterName(name); got != want {
			t.Errorf("IsValidParameterName(%q) = %v, want %v", name, got, want)
		}
	}

	ops := map[string]bool{
		"getSensorData": true,
		"get_data":      false,
		"ping2":         false,
		"":              false,
	}

	for id, want := range ops {
		if got := IsValidOperationID(id); got != want {
			t.Errorf("IsValidOperationID(%q) = %v, want %v", id, got, want)
		}
	}
}
