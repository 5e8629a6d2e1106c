package utils

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type jsonSample struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestFromJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    jsonSample
		wantErr bool
	}{
		{name: "valid", input: `{"name":"a","value":1}`, want: jsonSample{Name: "a", Value: 1}},
		{name: "empty input", input: "", want: jsonSample{}},
		{name: "whitespace only", input: "  \n", want: jsonSample{}},
		{name: "truncated", input: `{"name":"a",`, wantErr: true},
		{name: "unknown field", input: `{"name":"a","other":1}`, wantErr: true},
		{name: "trailing value", input: `{"name":"a"}{"name":"b"}`, wantErr: true},
		{name: "trailing whitespace", input: `{"name":"a"}   `, want: jsonSample{Name: "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FromJSON[jsonSample]([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromJSON() error = %v, wantErr %v", err, tt.wantErr)
			}

			if !tt.wantErr && got != tt.want {
				t.Errorf("FromJSON() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFromJSONStreamExtraData(t *testing.T) {
	t.Parallel()

	_, err := FromJSONStream[jsonSample](strings.NewReader(`{"name":"a"} 1`))

	var extra *ExtraDataAfterJSONError
	if !errors.As(err, &extra) {
		t.Fatalf("FromJSONStream() error = %v, want ExtraDataAfterJSONError", err)
	}

	if extra.Error() != "extra data after JSON object" {
		t.Errorf("Error() = %q", extra.Error())
	}
}

func TestFromJSONStreamLenient(t *testing.T) {
	t.Parallel()

	got, err := FromJSONStreamLenient[jsonSample](strings.NewReader(`{"name":"a","other":true}`))
	if err != nil {
		t.Fatalf("FromJSONStreamLenient() error = %v", err)
	}

	if got.Name != "a" {
		t.Errorf("Name = %q, want a", got.Name)
	}
}

func TestToJSON(t *testing.T) {
	t.Parallel()

	got, err := ToJSON(map[string]string{"html": "<b>x</b>"})
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	if string(got) != `{"html":"<b>x</b>"}` {
		t.Errorf("ToJSON() = %s", got)
	}

	indented, err := ToJSONIndent(jsonSample{Name: "a", Value: 2})
	if err != nil {
		t.Fatalf("ToJSONIndent() error = %v", err)
	}

	want := "{\n  \"name\": \"a\",\n  \"value\": 2\n}"
	if string(indented) != want {
		t.Errorf("ToJSONIndent() = %s, want %s", indented, want)
	}
}

func TestToJSONStream(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := ToJSONStream(&buf, jsonSample{Name: "a"}); err != nil {
		t.Fatalf("ToJSONStream() error = %v", err)
	}

	if got := strings.TrimSpace(buf.String()); got != `{"name":"a","value":0}` {
		t.Errorf("ToJSONStream() = %s", got)
	}
}
