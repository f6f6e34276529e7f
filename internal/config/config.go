// Package config loads the device configuration and provisioning secrets.
//
// Load order:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables DUMBDOOR_SECTION_KEY (override file values)
//
// The result is validated before it is returned.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Input debounce policies.
const (
	PolicyEdge   = "edge"
	PolicyStable = "stable"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the root configuration.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	WiFi      WiFiConfig      `yaml:"wifi"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Connect   ConnectConfig   `yaml:"connect"`
	Time      TimeConfig      `yaml:"time"`
	Input     InputConfig     `yaml:"input"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	HTTP      HTTPConfig      `yaml:"http"`
	Statsd    StatsdConfig    `yaml:"statsd"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig identifies this controller.
type DeviceConfig struct {
	Name string `yaml:"name"`
}

// WiFiConfig holds the pre-provisioned credentials and static address.
type WiFiConfig struct {
	SSID      string        `yaml:"ssid"`
	Password  string        `yaml:"password"`
	Interface string        `yaml:"interface"`
	Address   AddressConfig `yaml:"address"`
}

// AddressConfig is the fixed IPv4 configuration applied after joining.
type AddressConfig struct {
	IP      string `yaml:"ip"`
	Netmask string `yaml:"netmask"`
	Gateway string `yaml:"gateway"`
	DNS     string `yaml:"dns"`
}

// GPIOConfig holds line offsets on the GPIO chip.
type GPIOConfig struct {
	Chip   string    `yaml:"chip"`
	Button int       `yaml:"button"`
	LED    LEDConfig `yaml:"led"`
}

// LEDConfig holds the tri-colour LED lines.
type LEDConfig struct {
	Red       int  `yaml:"red"`
	Green     int  `yaml:"green"`
	Blue      int  `yaml:"blue"`
	ActiveLow bool `yaml:"active_low"`
}

// IndicatorConfig controls the steady-state blink.
type IndicatorConfig struct {
	On        time.Duration `yaml:"on"`
	Off       time.Duration `yaml:"off"`
	QueueSize int           `yaml:"queue_size"`
}

// ConnectConfig controls link bring-up and retry.
type ConnectConfig struct {
	Blink           time.Duration `yaml:"blink"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	Multiplier      float64       `yaml:"multiplier"`
	MaxAttempts     int           `yaml:"max_attempts"`
	ConnectedStatus int           `yaml:"connected_status"`
	// DegradedHold is how long the red zero-address signal is shown before
	// the condition is escalated. 0 holds until reset.
	DegradedHold time.Duration `yaml:"degraded_hold"`
}

// TimeConfig points at the time reference service.
type TimeConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

// InputConfig controls button sampling.
type InputConfig struct {
	Poll          time.Duration `yaml:"poll"`
	Policy        string        `yaml:"policy"`
	Debounce      time.Duration `yaml:"debounce"`
	MaxReadErrors int           `yaml:"max_read_errors"`
}

// MQTTConfig controls event publishing.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
}

// HTTPConfig controls the status server. Empty Addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// StatsdConfig controls metrics.
type StatsdConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Addr      string   `yaml:"addr"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

// LoggingConfig controls the log sink.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with the device's stock values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{Name: "dumb-door"},
		WiFi: WiFiConfig{
			Interface: "wlan0",
		},
		GPIO: GPIOConfig{
			Chip:   "gpiochip0",
			Button: 14,
			LED:    LEDConfig{Red: 1, Green: 2, Blue: 3},
		},
		Indicator: IndicatorConfig{
			On:        1000 * time.Millisecond,
			Off:       4000 * time.Millisecond,
			QueueSize: 8,
		},
		Connect: ConnectConfig{
			Blink:           500 * time.Millisecond,
			InitialInterval: 1 * time.Second,
			MaxInterval:     16 * time.Second,
			Multiplier:      2,
			MaxAttempts:     30,
			ConnectedStatus: 1,
			DegradedHold:    5 * time.Minute,
		},
		Time: TimeConfig{
			URL:     "http://worldtimeapi.org/api/timezone/etc/utc",
			Timeout: 10 * time.Second,
			Retries: 3,
		},
		Input: InputConfig{
			Poll:          40 * time.Millisecond,
			Policy:        PolicyEdge,
			Debounce:      80 * time.Millisecond,
			MaxReadErrors: 5,
		},
		MQTT: MQTTConfig{
			Broker:   "tcp://192.168.1.200:1883",
			ClientID: "dumb-door",
		},
		HTTP: HTTPConfig{Addr: ":80"},
		Statsd: StatsdConfig{
			Addr:      "127.0.0.1:8125",
			Namespace: "dumb_door.",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// applyEnvOverrides applies DUMBDOOR_* environment variables.
// Secrets are usually provided this way rather than in the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DUMBDOOR_WIFI_SSID"); v != "" {
		cfg.WiFi.SSID = v
	}
	if v := os.Getenv("DUMBDOOR_WIFI_PASSWORD"); v != "" {
		cfg.WiFi.Password = v
	}
	if v := os.Getenv("DUMBDOOR_WIFI_ADDRESS_IP"); v != "" {
		cfg.WiFi.Address.IP = v
	}
	if v := os.Getenv("DUMBDOOR_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv("DUMBDOOR_MQTT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MQTT.Enabled = b
		}
	}
	if v, ok := os.LookupEnv("DUMBDOOR_HTTP_ADDR"); ok {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("DUMBDOOR_STATSD_ADDR"); v != "" {
		cfg.Statsd.Addr = v
	}
	if v := os.Getenv("DUMBDOOR_TIME_URL"); v != "" {
		cfg.Time.URL = v
	}
	if v := os.Getenv("DUMBDOOR_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks required fields, pin conflicts and value ranges.
func (c *Config) Validate() error {
	var problems []string

	if c.WiFi.SSID == "" {
		problems = append(problems, "wifi.ssid is required")
	}
	if c.WiFi.Address.IP == "" {
		problems = append(problems, "wifi.address.ip is required (static addressing)")
	}

	pins := map[int]string{}
	for _, p := range []struct {
		name string
		pin  int
	}{
		{"gpio.button", c.GPIO.Button},
		{"gpio.led.red", c.GPIO.LED.Red},
		{"gpio.led.green", c.GPIO.LED.Green},
		{"gpio.led.blue", c.GPIO.LED.Blue},
	} {
		if p.pin < 0 {
			problems = append(problems, fmt.Sprintf("%s must not be negative", p.name))
			continue
		}
		if other, ok := pins[p.pin]; ok {
			problems = append(problems, fmt.Sprintf("%s and %s both use pin %d", p.name, other, p.pin))
			continue
		}
		pins[p.pin] = p.name
	}

	if c.Indicator.On <= 0 || c.Indicator.Off <= 0 {
		problems = append(problems, "indicator.on and indicator.off must be positive")
	}
	if c.Indicator.QueueSize < 1 {
		problems = append(problems, "indicator.queue_size must be at least 1")
	}
	if c.Connect.Blink <= 0 {
		problems = append(problems, "connect.blink must be positive")
	}
	if c.Connect.InitialInterval <= 0 || c.Connect.MaxInterval < c.Connect.InitialInterval {
		problems = append(problems, "connect.initial_interval must be positive and not exceed connect.max_interval")
	}
	if c.Connect.Multiplier < 1 {
		problems = append(problems, "connect.multiplier must be >= 1")
	}
	if c.Connect.MaxAttempts < 1 {
		problems = append(problems, "connect.max_attempts must be at least 1")
	}
	if c.Connect.DegradedHold < 0 {
		problems = append(problems, "connect.degraded_hold must not be negative")
	}
	if c.Time.URL == "" {
		problems = append(problems, "time.url is required")
	}
	if c.Time.Timeout <= 0 {
		problems = append(problems, "time.timeout must be positive")
	}
	if c.Time.Retries < 0 {
		problems = append(problems, "time.retries must not be negative")
	}
	if c.Input.Poll <= 0 {
		problems = append(problems, "input.poll must be positive")
	}
	switch c.Input.Policy {
	case PolicyEdge:
	case PolicyStable:
		if c.Input.Debounce <= 0 {
			problems = append(problems, "input.debounce must be positive for the stable policy")
		}
	default:
		problems = append(problems, fmt.Sprintf("input.policy %q is not one of %q, %q", c.Input.Policy, PolicyEdge, PolicyStable))
	}
	if c.Input.MaxReadErrors < 1 {
		problems = append(problems, "input.max_read_errors must be at least 1")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		problems = append(problems, "mqtt.broker is required when mqtt is enabled")
	}
	if c.Statsd.Enabled && c.Statsd.Addr == "" {
		problems = append(problems, "statsd.addr is required when statsd is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
