package mqtt

import (
	"errors"
	"fmt"
	"strings"

	"sensor-dashboard/backend/pkg/generate"
)

// validateTopicPattern validates an MQTT topic pattern with {param} placeholders.
// Valid patterns:
// - Parameters must be in {paramName} format (e.g., devices/{deviceID}/readings)
// - Parameter names must start with a letter and contain only alphanumeric characters and underscores
// - Wildcards '+' and '#' are NOT supported, parameters are used instead.
func validateTopicPattern(topic string) error {
	if topic == "" {
		return errors.New("topic cannot be empty")
	}

	if strings.HasPrefix(topic, "/") {
		return errors.New("leading slash is not allowed")
	}

	if strings.HasSuffix(topic, "/") {
		return errors.New("trailing slash is not allowed")
	}

	seen := map[string]struct{}{}

	for segment := range strings.SplitSeq(topic, "/") {
		if segment == "" {
			return errors.New("empty segments are not allowed")
		}

		if strings.Contains(segment, "#") {
			return errors.New("multi-level wildcard '#' is not supported - use explicit parameters {param} instead")
		}

		if strings.Contains(segment, "+") {
			return errors.New("wildcard '+' is not supported - use parameter syntax {param} instead")
		}

		if !strings.HasPrefix(segment, "{") || !strings.HasSuffix(segment, "}") {
			if strings.ContainsAny(segment, "{}") {
				return errors.New("invalid parameter syntax - use {paramName} format")
			}

			continue
		}

		names, err := generate.ExtractParamNames(segment)
		if err != nil {
			return err
		}

		if len(names) != 1 || "{"+names[0]+"}" != segment {
			return errors.New("a parameter must span a whole topic level")
		}

		if !generate.IsValidParameterName(names[0]) {
			return fmt.Errorf("invalid parameter name '%s' - must start with a letter and contain only alphanumeric characters and underscores", names[0])
		}

		if _, dup := seen[names[0]]; dup {
			return fmt.Errorf("duplicate parameter '%s'", names[0])
		}

		seen[names[0]] = struct{}{}
	}

	return nil
}

// convertTopicToMQTT converts a parameterized topic (devices/{deviceID}/readings)
// to an MQTT wildcard pattern (devices/+/readings).
func convertTopicToMQTT(topic string) string {
	segments := strings.Split(topic, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			segments[i] = "+"
		}
	}

	return strings.Join(segments, "/")
}

// matchTopic resolves the parameters of pattern against a concrete topic.
// It reports false when the topic has a different shape.
func matchTopic(pattern, topic string) (map[string]string, bool) {
	want := strings.Split(pattern, "/")
	got := strings.Split(topic, "/")

	if len(want) != len(got) {
		return nil, false
	}

	params := map[string]string{}

	for i, segment := range want {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			if got[i] == "" {
				return nil, false
			}

			params[segment[1:len(segment)-1]] = got[i]

			continue
		}

		if segment != got[i] {
			return nil, false
		}
	}

	return params, true
}

// validateQoS validates a QoS level.
func validateQoS(qos QoS) error {
	if qos != QoSAtMostOnce && qos != QoSAtLeastOnce && qos != QoSExactlyOnce {
		return errors.New("qos must be 0, 1, or 2")
	}

	return nil
}

// validateSubscriptionSpec validates a subscription specification.
func validateSubscriptionSpec(spec SubscriptionSpec) error {
	if spec.OperationID == "" {
		return errors.New("operationID is required")
	}

	if !generate.IsValidOperationID(spec.OperationID) {
		return fmt.Errorf("invalid operationID %q", spec.OperationID)
	}

	if spec.Summary == "" {
		return errors.New("summary is required")
	}

	if spec.Description == "" {
		return errors.New("description is required")
	}

	if spec.Group == "" {
		return errors.New("group is required")
	}

	if spec.Handler == nil {
		return errors.New("handler is required")
	}

	return validateQoS(spec.QoS)
}
