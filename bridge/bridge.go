package bridge

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"govesc/protocol"
)

// MotorClient is the controller surface the bridge drives. Both
// controller.Controller and controller.RemoteController satisfy it.
type MotorClient interface {
	GetValuesSelective(mask protocol.ValuesMask) (protocol.Values, error)
	SetRPM(rpm int32) error
	SetCurrent(amps float32) error
	SetHandbrake(amps float32) error
}

// TelemetryMessage is the JSON document published per poll.
type TelemetryMessage struct {
	Timestamp time.Time       `json:"timestamp"`
	Values    protocol.Values `json:"values"`
}

// SetpointMessage is the JSON document accepted on the command topic.
// Command is one of "set_rpm", "set_current", "set_handbrake" or
// "release"; Value carries the setpoint and is ignored for "release".
type SetpointMessage struct {
	Command string  `json:"command"`
	Value   float64 `json:"value"`
}

// Bridge polls a motor controller for telemetry, publishes it over MQTT
// and applies setpoint commands received from the broker.
type Bridge struct {
	cfg    *Config
	motor  MotorClient
	mask   protocol.ValuesMask
	client mqtt.Client
	logger *log.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a bridge for an already-connected motor client.
func New(cfg *Config, motor MotorClient) (*Bridge, error) {
	mask, err := cfg.FieldMask()
	if err != nil {
		return nil, err
	}
	return &Bridge{
		cfg:      cfg,
		motor:    motor,
		mask:     mask,
		logger:   log.New(os.Stdout, "[vesc-bridge] ", log.LstdFlags),
		stopChan: make(chan struct{}),
	}, nil
}

// Start connects to the MQTT broker, subscribes to the command topic and
// begins the telemetry poll loop.
func (b *Bridge) Start() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(b.cfg.MQTT.Broker)
	opts.SetClientID(b.cfg.MQTT.ClientID)
	opts.SetAutoReconnect(true)
	if b.cfg.MQTT.Username != "" {
		opts.SetUsername(b.cfg.MQTT.Username)
		opts.SetPassword(b.cfg.MQTT.Password)
	}
	opts.SetOnConnectHandler(b.onConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.logger.Printf("MQTT connection lost: %v", err)
	})

	b.client = mqtt.NewClient(opts)
	if token := b.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	b.wg.Add(1)
	go b.pollLoop()

	b.logger.Printf("bridge started, polling every %v", b.cfg.Poll.Interval)
	return nil
}

// Stop halts polling and disconnects from the broker.
func (b *Bridge) Stop() {
	close(b.stopChan)
	b.wg.Wait()
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(1000)
	}
	b.logger.Println("bridge stopped")
}

func (b *Bridge) onConnect(client mqtt.Client) {
	b.logger.Printf("connected to MQTT broker %s", b.cfg.MQTT.Broker)

	topic := b.cfg.MQTT.CommandTopic
	token := client.Subscribe(topic, b.cfg.MQTT.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		if err := b.handleSetpoint(msg.Payload()); err != nil {
			b.logger.Printf("command on %s rejected: %v", msg.Topic(), err)
		}
	})
	if token.Wait() && token.Error() != nil {
		b.logger.Printf("failed to subscribe to %s: %v", topic, token.Error())
		return
	}
	b.logger.Printf("subscribed to command topic %s", topic)
}

// handleSetpoint applies one JSON setpoint message to the motor.
func (b *Bridge) handleSetpoint(payload []byte) error {
	var msg SetpointMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("malformed setpoint message: %w", err)
	}

	switch msg.Command {
	case "set_rpm":
		return b.motor.SetRPM(int32(msg.Value))
	case "set_current":
		return b.motor.SetCurrent(float32(msg.Value))
	case "set_handbrake":
		return b.motor.SetHandbrake(float32(msg.Value))
	case "release":
		return b.motor.SetCurrent(0)
	default:
		return fmt.Errorf("unknown command %q", msg.Command)
	}
}

func (b *Bridge) pollLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.cfg.Poll.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.pollOnce(); err != nil {
				b.logger.Printf("telemetry poll failed: %v", err)
			}
		}
	}
}

func (b *Bridge) pollOnce() error {
	values, err := b.motor.GetValuesSelective(b.mask)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(TelemetryMessage{
		Timestamp: time.Now().UTC(),
		Values:    values,
	})
	if err != nil {
		return err
	}

	token := b.client.Publish(b.cfg.MQTT.TelemetryTopic, b.cfg.MQTT.QoS, false, payload)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish failed: %w", token.Error())
	}
	return nil
}
