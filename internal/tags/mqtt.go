package tags

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"livelink-telematics-backend/config"
)

// mqttPublisher is the subset of the paho client used by MQTTSink.
type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload any) mqtt.Token
}

// MQTTSink mirrors every published tag to an MQTT broker as a retained
// message, so the downstream platform sees current state on subscribe.
type MQTTSink struct {
	client mqttPublisher
	prefix string
}

// NewMQTTSink connects to the configured broker and returns a sink
// publishing under the configured topic prefix.
func NewMQTTSink(cfg *config.MQTTConfig) (*MQTTSink, error) {
	broker := fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	return &MQTTSink{
		client: client,
		prefix: strings.TrimRight(cfg.TopicPrefix, "/"),
	}, nil
}

// Publish sends the tag to <prefix>/<name> at QoS 1, retained. Composite
// values are JSON-encoded the same way the in-memory store encodes them.
func (s *MQTTSink) Publish(name string, value any) error {
	v, err := encodeValue(value)
	if err != nil {
		return err
	}
	payload := ""
	if v != nil {
		payload = fmt.Sprint(v)
	}

	token := s.client.Publish(s.prefix+"/"+name, 1, true, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %q: %w", name, err)
	}
	return nil
}
