package config

import "strings"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// A queue of zero would drop every event.
	if cfg.MQTT.QueueLength == 0 {
		cfg.MQTT.QueueLength = 1
	}

	// "off" disables MQTT.
	if strings.EqualFold(cfg.MQTT.Broker, "off") {
		cfg.MQTT.Broker = ""
	}
}
