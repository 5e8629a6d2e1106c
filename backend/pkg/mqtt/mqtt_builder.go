package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"sensor-dashboard/backend/pkg/generate"
	"sensor-dashboard/backend/pkg/utils"
)

const disconnectQuiesce = 250 // ms

// MQTTBuilder registers subscriptions, documents them and keeps them
// subscribed across reconnects.
type MQTTBuilder struct {
	client    pahomqtt.Client
	collector generate.MQTTMetadataCollector
	l         *slog.Logger

	mu            sync.Mutex
	subscriptions map[string]*SubscriptionSpec

	runConnectOnce atomic.Bool
}

// MQTTClientOptions contains configuration for creating an MQTT client.
type MQTTClientOptions struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
}

// NewMQTTBuilder creates a new MQTT builder with the given broker configuration.
func NewMQTTBuilder(l *slog.Logger, collector generate.MQTTMetadataCollector, opts MQTTClientOptions) (*MQTTBuilder, error) {
	l = l.With(slog.String("component", "mqtt-builder"))

	if opts.BrokerURL == "" {
		return nil, errors.New("broker URL is required")
	}

	if opts.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	if collector == nil {
		collector = generate.NoopCollector{}
	}

	mb := &MQTTBuilder{
		collector:     collector,
		l:             l,
		subscriptions: make(map[string]*SubscriptionSpec),
	}

	clientOpts := pahomqtt.NewClientOptions()
	clientOpts.AddBroker(opts.BrokerURL)
	clientOpts.SetClientID(opts.ClientID)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}

	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	// Retry every 5 seconds, max interval 15 seconds
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectRetry(true)
	clientOpts.SetConnectTimeout(5 * time.Second)
	clientOpts.SetConnectRetryInterval(5 * time.Second)
	clientOpts.SetMaxReconnectInterval(15 * time.Second)
	clientOpts.SetKeepAlive(30 * time.Second)
	clientOpts.SetOrderMatters(false)

	clientOpts.SetOnConnectHandler(mb.onConnect)
	clientOpts.SetConnectionLostHandler(mb.onConnectionLost)
	clientOpts.SetReconnectingHandler(mb.onReconnecting)

	mb.client = pahomqtt.NewClient(clientOpts)

	l.Info("MQTT builder created", slog.String("broker", opts.BrokerURL), slog.String("clientID", opts.ClientID))

	return mb, nil
}

// RegisterSubscribe registers a subscription operation on a {param} topic pattern.
func (mb *MQTTBuilder) RegisterSubscribe(topic string, spec SubscriptionSpec) error {
	if mb.runConnectOnce.Load() {
		return errors.New("cannot register subscription after connecting to MQTT broker")
	}

	if sanitized := generate.SanitizePath(topic); topic != sanitized {
		return fmt.Errorf("invalid topic pattern: topic %q does not match sanitized form %q", topic, sanitized)
	}

	if err := validateTopicPattern(topic); err != nil {
		return fmt.Errorf("invalid topic pattern: %w", err)
	}

	if err := validateSubscriptionSpec(spec); err != nil {
		return fmt.Errorf("invalid subscription spec: %w", err)
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()

	if _, exists := mb.subscriptions[spec.OperationID]; exists {
		return fmt.Errorf("duplicate operationID: %s", spec.OperationID)
	}

	spec.pattern = topic
	spec.topicMQTT = convertTopicToMQTT(topic)

	if err := mb.collector.RegisterMQTTSubscription(&generate.MQTTSubscriptionInfo{
		OperationID: spec.OperationID,
		Topic:       topic,
		Summary:     spec.Summary,
		Description: spec.Description,
		Group:       spec.Group,
	}); err != nil {
		return fmt.Errorf("failed to register subscription with collector: %w", err)
	}

	mb.subscriptions[spec.OperationID] = &spec

	mb.l.Info("Registered MQTT subscription", slog.String("operationID", spec.OperationID), slog.String("topic", topic), slog.String("group", spec.Group))

	return nil
}

// MustRegisterSubscribe is RegisterSubscribe that panics on an invalid spec.
func (mb *MQTTBuilder) MustRegisterSubscribe(topic string, spec SubscriptionSpec) {
	if err := mb.RegisterSubscribe(topic, spec); err != nil {
		panic(err)
	}
}

// Connect connects to the broker and blocks until the first connection
// succeeds or ctx ends. Reconnects happen in the background afterwards.
func (mb *MQTTBuilder) Connect(ctx context.Context) error {
	mb.runConnectOnce.Store(true)

	mb.l.Info("Connecting to MQTT broker...")

	token := mb.client.Connect()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to connect to MQTT broker: %w", ctx.Err())
		case <-ticker.C:
			mb.l.Warn("MQTT has not done an initial connection yet, still waiting...")
		case <-token.Done():
			if err := token.Error(); err != nil {
				return fmt.Errorf("failed to connect to MQTT broker: %w", err)
			}

			mb.l.Info("Connected to MQTT broker")

			return nil
		}
	}
}

// IsConnected reports whether the client currently holds a broker connection.
func (mb *MQTTBuilder) IsConnected() bool {
	return mb.client.IsConnectionOpen()
}

// Disconnect disconnects from the MQTT broker.
func (mb *MQTTBuilder) Disconnect() {
	if !mb.client.IsConnected() {
		return
	}

	mb.l.Info("Disconnecting from MQTT broker...")
	mb.client.Disconnect(disconnectQuiesce)
	mb.l.Info("Disconnected from MQTT broker")
}

// dispatch adapts a subscription handler to paho, resolving topic parameters.
func (mb *MQTTBuilder) dispatch(spec *SubscriptionSpec) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		params, ok := matchTopic(spec.pattern, msg.Topic())
		if !ok {
			mb.l.Warn("Dropping message on unexpected topic", slog.String("topic", msg.Topic()), slog.String("operationID", spec.OperationID))
			return
		}

		spec.Handler(Message{Topic: msg.Topic(), Params: params, Payload: msg.Payload()})
	}
}

// onConnect is called when the client successfully connects or reconnects to the broker.
func (mb *MQTTBuilder) onConnect(client pahomqtt.Client) {
	mb.mu.Lock()
	specs := make([]*SubscriptionSpec, 0, len(mb.subscriptions))
	for _, spec := range mb.subscriptions {
		specs = append(specs, spec)
	}
	mb.mu.Unlock()

	mb.l.Info("Connected to MQTT broker, subscribing to topics", slog.Int("subscriptionCount", len(specs)))

	for _, spec := range specs {
		token := client.Subscribe(spec.topicMQTT, byte(spec.QoS), mb.dispatch(spec))
		token.Wait()

		if err := token.Error(); err != nil {
			mb.l.Error("Failed to subscribe", slog.String("topic", spec.topicMQTT), slog.String("operationID", spec.OperationID), utils.ErrAttr(err))
			continue
		}

		mb.l.Info("Subscribed", slog.String("topic", spec.topicMQTT), slog.String("operationID", spec.OperationID))
	}
}

func (mb *MQTTBuilder) onConnectionLost(_ pahomqtt.Client, err error) {
	mb.l.Warn("Connection to MQTT broker lost", utils.ErrAttr(err))
}

func (mb *MQTTBuilder) onReconnecting(_ pahomqtt.Client, opts *pahomqtt.ClientOptions) {
	mb.l.Info("Reconnecting to MQTT broker", slog.String("broker", opts.Servers[0].String()))
}
