// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/relabs-tech/channelling_portal/internal/gesture"
	"github.com/relabs-tech/channelling_portal/internal/spirit"
	"github.com/relabs-tech/channelling_portal/internal/transport"
)

// EnvPrefix prefixes environment overrides, e.g. PORTAL_SERIAL_PORT.
const EnvPrefix = "PORTAL"

// Config holds all application configuration values.
type Config struct {
	// Transport
	Transport             string // serial, ble, wifi or mock
	SerialPort            string
	SerialBaudRate        int
	BLEAddress            string
	BLEServiceUUID        string
	BLECharacteristicUUID string // used for both reads and writes
	WiFiBindAddress       string
	WiFiPort              int
	ReadTimeoutMS         int
	MockSampleIntervalMS  int

	// Spirit
	SpiritName          string
	SpiritColor         string
	MeasurementCount    int
	FitnessThreshold    float64
	RotationDurationMS  int
	PauseDurationMS     int
	SkipMalformedFrames bool

	// MQTT (optional for the portal; required by web and console)
	MQTTBroker          string
	MQTTClientIDPortal  string
	MQTTClientIDWeb     string
	MQTTClientIDConsole string
	TopicSpirit         string

	// Web Server
	WebServerPort int

	LogLevel string
}

var defaults = map[string]any{
	"transport":               "serial",
	"serial_port":             "",
	"serial_baud_rate":        9600,
	"ble_address":             "",
	"ble_service_uuid":        "",
	"ble_characteristic_uuid": "",
	"wifi_bind_address":       "0.0.0.0",
	"wifi_port":               8080,
	"read_timeout_ms":         5000,
	"mock_sample_interval_ms": 20,
	"spirit_name":             "spirit",
	"spirit_color":            "",
	"measurement_count":       50,
	"fitness_threshold":       spirit.DefaultFitnessThreshold,
	"rotation_duration_ms":    1000,
	"pause_duration_ms":       100,
	"skip_malformed_frames":   false,
	"mqtt_broker":             "",
	"mqtt_client_id_portal":   "portal-controller",
	"mqtt_client_id_web":      "portal-web",
	"mqtt_client_id_console":  "portal-console",
	"topic_spirit":            "portal/spirit",
	"web_server_port":         8090,
	"log_level":               "info",
}

// Process-wide configuration, set once by InitGlobal.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads a KEY=VALUE configuration file. Blank lines and # comments are
// ignored, keys are case-insensitive, and PORTAL_<KEY> environment variables
// override the file. An empty configPath loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for _, key := range v.AllKeys() {
		if _, ok := defaults[key]; !ok {
			return nil, fmt.Errorf("unknown config key: %q", strings.ToUpper(key))
		}
	}

	cfg := &Config{}
	if err := cfg.fill(v); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fill copies values out of v, reporting the first malformed one.
func (c *Config) fill(v *viper.Viper) error {
	p := parser{v: v}

	c.Transport = strings.ToLower(p.str("transport"))
	c.SerialPort = p.str("serial_port")
	c.SerialBaudRate = p.int("serial_baud_rate")
	c.BLEAddress = p.str("ble_address")
	c.BLEServiceUUID = p.str("ble_service_uuid")
	c.BLECharacteristicUUID = p.str("ble_characteristic_uuid")
	c.WiFiBindAddress = p.str("wifi_bind_address")
	c.WiFiPort = p.int("wifi_port")
	c.ReadTimeoutMS = p.int("read_timeout_ms")
	c.MockSampleIntervalMS = p.int("mock_sample_interval_ms")

	c.SpiritName = p.str("spirit_name")
	c.SpiritColor = p.str("spirit_color")
	c.MeasurementCount = p.int("measurement_count")
	c.FitnessThreshold = p.float("fitness_threshold")
	c.RotationDurationMS = p.int("rotation_duration_ms")
	c.PauseDurationMS = p.int("pause_duration_ms")
	c.SkipMalformedFrames = p.bool("skip_malformed_frames")

	c.MQTTBroker = p.str("mqtt_broker")
	c.MQTTClientIDPortal = p.str("mqtt_client_id_portal")
	c.MQTTClientIDWeb = p.str("mqtt_client_id_web")
	c.MQTTClientIDConsole = p.str("mqtt_client_id_console")
	c.TopicSpirit = strings.TrimSuffix(p.str("topic_spirit"), "/")

	c.WebServerPort = p.int("web_server_port")
	c.LogLevel = strings.ToLower(p.str("log_level"))

	return p.err
}

// parser keeps the first conversion error so fill reads straight through.
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) str(key string) string {
	return strings.TrimSpace(p.v.GetString(key))
}

func (p *parser) int(key string) int {
	n, err := cast.ToIntE(strings.TrimSpace(cast.ToString(p.v.Get(key))))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", strings.ToUpper(key), p.v.GetString(key), err)
	}
	return n
}

func (p *parser) float(key string) float64 {
	f, err := cast.ToFloat64E(strings.TrimSpace(cast.ToString(p.v.Get(key))))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", strings.ToUpper(key), p.v.GetString(key), err)
	}
	return f
}

func (p *parser) bool(key string) bool {
	b, err := cast.ToBoolE(strings.TrimSpace(cast.ToString(p.v.Get(key))))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", strings.ToUpper(key), p.v.GetString(key), err)
	}
	return b
}

// validate checks that required fields are set and values are in range.
func (c *Config) validate() error {
	switch c.Transport {
	case transport.KindSerial:
		if c.SerialPort == "" {
			return fmt.Errorf("SERIAL_PORT is required for the serial transport")
		}
		if c.SerialBaudRate <= 0 {
			return fmt.Errorf("SERIAL_BAUD_RATE must be positive, got %d", c.SerialBaudRate)
		}
	case transport.KindBLE:
		if c.BLEAddress == "" {
			return fmt.Errorf("BLE_ADDRESS is required for the ble transport")
		}
		if c.BLEServiceUUID == "" {
			return fmt.Errorf("BLE_SERVICE_UUID is required for the ble transport")
		}
		if c.BLECharacteristicUUID == "" {
			return fmt.Errorf("BLE_CHARACTERISTIC_UUID is required for the ble transport")
		}
	case transport.KindWiFi:
		if c.WiFiPort < 0 || c.WiFiPort > 65535 {
			return fmt.Errorf("WIFI_PORT must be 0-65535, got %d", c.WiFiPort)
		}
	case transport.KindMock:
		if c.MockSampleIntervalMS <= 0 {
			return fmt.Errorf("MOCK_SAMPLE_INTERVAL_MS must be positive, got %d", c.MockSampleIntervalMS)
		}
	default:
		return fmt.Errorf("TRANSPORT must be one of serial, ble, wifi, mock, got %q", c.Transport)
	}

	if c.ReadTimeoutMS <= 0 {
		return fmt.Errorf("READ_TIMEOUT_MS must be positive, got %d", c.ReadTimeoutMS)
	}
	if c.MeasurementCount <= 0 {
		return fmt.Errorf("MEASUREMENT_COUNT must be positive, got %d", c.MeasurementCount)
	}
	if c.FitnessThreshold <= 0 {
		return fmt.Errorf("FITNESS_THRESHOLD must be positive, got %v", c.FitnessThreshold)
	}
	if c.RotationDurationMS <= 0 {
		return fmt.Errorf("ROTATION_DURATION_MS must be positive, got %d", c.RotationDurationMS)
	}
	if c.PauseDurationMS < 0 {
		return fmt.Errorf("PAUSE_DURATION_MS must not be negative, got %d", c.PauseDurationMS)
	}
	if c.SpiritName == "" || strings.ContainsAny(c.SpiritName, "/+#") {
		return fmt.Errorf("SPIRIT_NAME must be non-empty and free of MQTT wildcards, got %q", c.SpiritName)
	}
	if c.TopicSpirit == "" {
		return fmt.Errorf("TOPIC_SPIRIT is required")
	}
	if c.WebServerPort <= 0 || c.WebServerPort > 65535 {
		return fmt.Errorf("WEB_SERVER_PORT must be 1-65535, got %d", c.WebServerPort)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

// ReadTimeout bounds each blocking transport read.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

// Waveform is the configured reference gesture.
func (c *Config) Waveform() gesture.Waveform {
	return gesture.Waveform{
		Rotation: time.Duration(c.RotationDurationMS) * time.Millisecond,
		Pause:    time.Duration(c.PauseDurationMS) * time.Millisecond,
	}
}

// TransportConfig selects and addresses the device link.
func (c *Config) TransportConfig() transport.Config {
	return transport.Config{
		Kind:               c.Transport,
		SerialPort:         c.SerialPort,
		SerialBaudRate:     c.SerialBaudRate,
		BLEAddress:         c.BLEAddress,
		BLEService:         c.BLEServiceUUID,
		BLECharacteristic:  c.BLECharacteristicUUID,
		WiFiBindAddress:    c.WiFiBindAddress,
		WiFiPort:           c.WiFiPort,
		ReadTimeout:        c.ReadTimeout(),
		MockSampleInterval: time.Duration(c.MockSampleIntervalMS) * time.Millisecond,
		MockWaveform:       c.Waveform(),
	}
}

// SpiritConfig tunes the state controller.
func (c *Config) SpiritConfig() spirit.Config {
	return spirit.Config{
		Name:             c.SpiritName,
		Color:            c.SpiritColor,
		Capacity:         c.MeasurementCount,
		Waveform:         c.Waveform(),
		FitnessThreshold: c.FitnessThreshold,
		SkipMalformed:    c.SkipMalformedFrames,
	}
}

// StatusTopic is where the named spirit's status is published.
func (c *Config) StatusTopic(name string) string {
	return c.TopicSpirit + "/" + name + "/status"
}

// StatusWildcard subscribes to every spirit's status.
func (c *Config) StatusWildcard() string {
	return c.TopicSpirit + "/+/status"
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
