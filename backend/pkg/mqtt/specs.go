package mqtt

// QoS represents MQTT quality of service levels.
type QoS byte

const (
	// QoSAtMostOnce means the message is delivered at most once, or it may not be delivered at all.
	QoSAtMostOnce QoS = 0
	// QoSAtLeastOnce means the message is always delivered at least once.
	QoSAtLeastOnce QoS = 1
	// QoSExactlyOnce means the message is always delivered exactly once.
	QoSExactlyOnce QoS = 2
)

// Message is a received publication with the {param} values of its topic pattern resolved.
type Message struct {
	Topic   string
	Params  map[string]string
	Payload []byte
}

// Param returns the value of a topic parameter, or "" when the pattern has no such parameter.
func (m Message) Param(name string) string {
	return m.Params[name]
}

// MessageHandler handles one received message. Handlers run on the client's
// message goroutine and should not block for long.
type MessageHandler func(msg Message)

// SubscriptionSpec describes an MQTT subscription operation.
type SubscriptionSpec struct {
	OperationID string         // OperationID is a unique identifier for this subscription operation (e.g., "ingestReading").
	Summary     string         // Summary is a short description of the subscription.
	Description string         // Description provides detailed information about the subscription.
	Group       string         // Group is a logical grouping for the subscription (e.g., "Ingest").
	Handler     MessageHandler // Handler is called for every message received on the topic.
	QoS         QoS            // QoS is the quality of service level for this subscription.

	pattern   string
	topicMQTT string
}
