package mqtt

import (
	"maps"
	"strings"
	"testing"
)

func TestValidateTopicPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		topic    string
		errorMsg string
	}{
		{name: "simple topic", topic: "devices/readings"},
		{name: "topic with one parameter", topic: "devices/{deviceID}/readings"},
		{name: "topic with multiple parameters", topic: "sites/{siteID}/devices/{deviceID}/readings"},
		{name: "parameter with underscore", topic: "devices/{device_id}/readings"},
		{name: "parameter with numbers", topic: "devices/{device123}/readings"},
		{name: "empty topic", topic: "", errorMsg: "topic cannot be empty"},
		{name: "leading slash", topic: "/devices/readings", errorMsg: "leading slash is not allowed"},
		{name: "trailing slash", topic: "devices/readings/", errorMsg: "trailing slash is not allowed"},
		{name: "empty segment", topic: "devices//readings", errorMsg: "empty segments are not allowed"},
		{name: "multi-level wildcard", topic: "devices/#", errorMsg: "multi-level wildcard '#' is not supported"},
		{name: "single-level wildcard", topic: "devices/+/readings", errorMsg: "wildcard '+' is not supported"},
		{name: "parameter starts with number", topic: "devices/{1device}/readings", errorMsg: "invalid parameter name '1device'"},
		{name: "parameter starts with underscore", topic: "devices/{_device}/readings", errorMsg: "invalid parameter name '_device'"},
		{name: "unclosed parameter", topic: "devices/{deviceID/readings", errorMsg: "invalid parameter syntax"},
		{name: "partial parameter", topic: "devices/dev-{deviceID}/readings", errorMsg: "invalid parameter syntax"},
		{name: "duplicate parameter", topic: "devices/{id}/sensors/{id}", errorMsg: "duplicate parameter 'id'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateTopicPattern(tt.topic)

			if tt.errorMsg == "" {
				if err != nil {
					t.Fatalf("validateTopicPattern(%q) unexpected error: %v", tt.topic, err)
				}

				return
			}

			if err == nil {
				t.Fatalf("validateTopicPattern(%q) expected error containing %q", tt.topic, tt.errorMsg)
			}

			if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("validateTopicPattern(%q) error = %q, want it to contain %q", tt.topic, err.Error(), tt.errorMsg)
			}
		})
	}
}

func TestConvertTopicToMQTT(t *testing.T) {
	t.Parallel()

	tests := []struct {
		topic string
		want  string
	}{
		{"devices/readings", "devices/readings"},
		{"devices/{deviceID}/readings", "devices/+/readings"},
		{"sites/{siteID}/devices/{deviceID}", "sites/+/devices/+"},
		{"{a}", "+"},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			t.Parallel()

			if got := convertTopicToMQTT(tt.topic); got != tt.want {
				t.Errorf("convertTopicToMQTT(%q) = %q, want %q", tt.topic, got, tt.want)
			}
		})
	}
}

func TestMatchTopic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		topic   string
		want    map[string]string
		ok      bool
	}{
		{"static", "devices/readings", "devices/readings", map[string]string{}, true},
		{"one parameter", "devices/{deviceID}/readings", "devices/esp32-01/readings", map[string]string{"deviceID": "esp32-01"}, true},
		{"two parameters", "sites/{site}/devices/{device}", "sites/lab/devices/d1", map[string]string{"site": "lab", "device": "d1"}, true},
		{"static mismatch", "devices/{deviceID}/readings", "devices/d1/status", nil, false},
		{"too short", "devices/{deviceID}/readings", "devices/d1", nil, false},
		{"too long", "devices/{deviceID}/readings", "devices/d1/readings/x", nil, false},
		{"empty level", "devices/{deviceID}/readings", "devices//readings", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := matchTopic(tt.pattern, tt.topic)
			if ok != tt.ok {
				t.Fatalf("matchTopic(%q, %q) ok = %v, want %v", tt.pattern, tt.topic, ok, tt.ok)
			}

			if ok && !maps.Equal(got, tt.want) {
				t.Errorf("matchTopic(%q, %q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
			}
		})
	}
}

func TestValidateSubscriptionSpec(t *testing.T) {
	t.Parallel()

	valid := func() SubscriptionSpec {
		return SubscriptionSpec{
			OperationID: "ingestReading",
			Summary:     "Ingest",
			Description: "Stores device readings",
			Group:       "Ingest",
			Handler:     func(Message) {},
		}
	}

	tests := []struct {
		name     string
		mutate   func(*SubscriptionSpec)
		errorMsg string
	}{
		{"valid", func(*SubscriptionSpec) {}, ""},
		{"missing operationID", func(s *SubscriptionSpec) { s.OperationID = "" }, "operationID is required"},
		{"bad operationID", func(s *SubscriptionSpec) { s.OperationID = "ingest-reading" }, "invalid operationID"},
		{"missing summary", func(s *SubscriptionSpec) { s.Summary = "" }, "summary is required"},
		{"missing description", func(s *SubscriptionSpec) { s.Description = "" }, "description is required"},
		{"missing group", func(s *SubscriptionSpec) { s.Group = "" }, "group is required"},
		{"missing handler", func(s *SubscriptionSpec) { s.Handler = nil }, "handler is required"},
		{"bad qos", func(s *SubscriptionSpec) { s.QoS = 3 }, "qos must be 0, 1, or 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spec := valid()
			tt.mutate(&spec)

			err := validateSubscriptionSpec(spec)
			if tt.errorMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				return
			}

			if err == nil || !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("error = %v, want it to contain %q", err, tt.errorMsg)
			}
		})
	}
}
