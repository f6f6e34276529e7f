package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
device:
  name: front-door
wifi:
  ssid: HomeNet
  password: hunter2
  address:
    ip: 10.0.0.5
    netmask: 255.255.255.0
    gateway: 10.0.0.1
    dns: 10.0.0.1
gpio:
  button: 14
  led:
    red: 1
    green: 2
    blue: 3
connect:
  blink: 250ms
  max_attempts: 10
input:
  policy: stable
  debounce: 60ms
mqtt:
  enabled: true
  broker: tcp://broker.local:1883
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "front-door", cfg.Device.Name)
	assert.Equal(t, "HomeNet", cfg.WiFi.SSID)
	assert.Equal(t, "10.0.0.5", cfg.WiFi.Address.IP)
	assert.Equal(t, 250*time.Millisecond, cfg.Connect.Blink)
	assert.Equal(t, 10, cfg.Connect.MaxAttempts)
	assert.Equal(t, PolicyStable, cfg.Input.Policy)
	assert.Equal(t, 60*time.Millisecond, cfg.Input.Debounce)
	assert.True(t, cfg.MQTT.Enabled)

	// untouched sections keep defaults
	assert.Equal(t, "wlan0", cfg.WiFi.Interface)
	assert.Equal(t, 1000*time.Millisecond, cfg.Indicator.On)
	assert.Equal(t, 4000*time.Millisecond, cfg.Indicator.Off)
	assert.Equal(t, 40*time.Millisecond, cfg.Input.Poll)
	assert.Equal(t, "http://worldtimeapi.org/api/timezone/etc/utc", cfg.Time.URL)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DUMBDOOR_WIFI_PASSWORD", "from-env")
	t.Setenv("DUMBDOOR_MQTT_BROKER", "tcp://other:1883")
	t.Setenv("DUMBDOOR_HTTP_ADDR", "")
	t.Setenv("DUMBDOOR_LOGGING_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.WiFi.Password)
	assert.Equal(t, "tcp://other:1883", cfg.MQTT.Broker)
	assert.Equal(t, "", cfg.HTTP.Addr, "an explicitly empty addr disables the status server")
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "wifi: [unterminated"))
	assert.Error(t, err)
}

func TestValidateRequiresSSIDAndAddress(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "wifi.ssid")
	assert.Contains(t, err.Error(), "wifi.address.ip")
}

func validConfig() *Config {
	cfg := Default()
	cfg.WiFi.SSID = "HomeNet"
	cfg.WiFi.Address.IP = "10.0.0.5"
	return cfg
}

func TestValidateDefaultsWithWiFiAreValid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidatePinConflict(t *testing.T) {
	cfg := validConfig()
	cfg.GPIO.LED.Blue = cfg.GPIO.Button

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both use pin 14")
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero queue", func(c *Config) { c.Indicator.QueueSize = 0 }, "queue_size"},
		{"zero blink", func(c *Config) { c.Connect.Blink = 0 }, "connect.blink"},
		{"interval above max", func(c *Config) { c.Connect.InitialInterval = time.Minute }, "initial_interval"},
		{"multiplier below one", func(c *Config) { c.Connect.Multiplier = 0.5 }, "multiplier"},
		{"no attempts", func(c *Config) { c.Connect.MaxAttempts = 0 }, "max_attempts"},
		{"negative hold", func(c *Config) { c.Connect.DegradedHold = -time.Second }, "degraded_hold"},
		{"no time url", func(c *Config) { c.Time.URL = "" }, "time.url"},
		{"unknown policy", func(c *Config) { c.Input.Policy = "magic" }, "input.policy"},
		{"stable without debounce", func(c *Config) {
			c.Input.Policy = PolicyStable
			c.Input.Debounce = 0
		}, "input.debounce"},
		{"mqtt without broker", func(c *Config) {
			c.MQTT.Enabled = true
			c.MQTT.Broker = ""
		}, "mqtt.broker"},
		{"negative pin", func(c *Config) { c.GPIO.Button = -1 }, "gpio.button"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExampleConfigIsValid(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "dumb-door.example.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "front-door", cfg.Device.Name)
	assert.Equal(t, 5*time.Minute, cfg.Connect.DegradedHold)
	assert.Equal(t, PolicyEdge, cfg.Input.Policy)
}
