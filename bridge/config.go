// Package bridge relays VESC telemetry to an MQTT broker and accepts
// setpoint commands back from it.
package bridge

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"govesc/protocol"
)

// Config holds the bridge configuration, loaded from a YAML file.
type Config struct {
	Serial struct {
		Device string `mapstructure:"device"`
		Baud   int    `mapstructure:"baud"`
	} `mapstructure:"serial"`

	MQTT struct {
		Broker         string `mapstructure:"broker"`
		Username       string `mapstructure:"username"`
		Password       string `mapstructure:"password"`
		ClientID       string `mapstructure:"client_id"`
		TelemetryTopic string `mapstructure:"telemetry_topic"`
		CommandTopic   string `mapstructure:"command_topic"`
		QoS            uint8  `mapstructure:"qos"`
	} `mapstructure:"mqtt"`

	Poll struct {
		// Interval between telemetry polls
		Interval time.Duration `mapstructure:"interval"`

		// Telemetry field group names to request, e.g. "rpm",
		// "voltage_in", "temp_mosfet_all". Empty means all fields.
		Fields []string `mapstructure:"fields"`

		// CAN id of the target controller when commands should be
		// forwarded over the CAN bus; -1 addresses the directly
		// connected controller.
		CANID int `mapstructure:"can_id"`
	} `mapstructure:"poll"`
}

// LoadConfig reads a YAML configuration file and applies defaults for
// missing values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("serial.device", "/dev/ttyACM0")
	v.SetDefault("serial.baud", 115200)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "vesc-bridge")
	v.SetDefault("mqtt.telemetry_topic", "vesc/telemetry")
	v.SetDefault("mqtt.command_topic", "vesc/command")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("poll.interval", time.Second)
	v.SetDefault("poll.can_id", -1)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if _, err := cfg.FieldMask(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FieldMask compiles the configured field names into a ValuesMask. An
// empty field list selects every defined field group.
func (c *Config) FieldMask() (protocol.ValuesMask, error) {
	if len(c.Poll.Fields) == 0 {
		return protocol.MaskAll, nil
	}
	var mask protocol.ValuesMask
	for _, name := range c.Poll.Fields {
		bit, ok := protocol.MaskByName(name)
		if !ok {
			return 0, fmt.Errorf("unknown telemetry field %q (known fields: %v)", name, protocol.MaskNames())
		}
		mask |= bit
	}
	return mask, nil
}
