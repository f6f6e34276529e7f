// Command dumb-door runs the door controller: it joins the WLAN, waits for
// button presses and toggles the lock, showing the state on the RGB LED.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/dumb-door/internal/config"
	"github.com/sweeney/dumb-door/internal/connectivity"
	"github.com/sweeney/dumb-door/internal/controller"
	"github.com/sweeney/dumb-door/internal/gpio"
	"github.com/sweeney/dumb-door/internal/indicator"
	"github.com/sweeney/dumb-door/internal/input"
	"github.com/sweeney/dumb-door/internal/lock"
	"github.com/sweeney/dumb-door/internal/logging"
	"github.com/sweeney/dumb-door/internal/metrics"
	"github.com/sweeney/dumb-door/internal/mqtt"
	"github.com/sweeney/dumb-door/internal/netlink"
	"github.com/sweeney/dumb-door/internal/status"
	"github.com/sweeney/dumb-door/internal/system"
	"github.com/sweeney/dumb-door/internal/timesync"
	"github.com/sweeney/dumb-door/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/dumb-door/config.yaml", "Path to the YAML config file")
	logLevel := flag.String("log-level", "", "Override the configured log level (debug, info, warn, error)")
	printState := flag.Bool("print-state", false, "Print the current button level and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("load config")
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if *printState {
		if err := printButton(cfg, os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("read button")
		}
		return
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

// printButton reads the button once.
func printButton(cfg *config.Config, w io.Writer) error {
	button, err := gpio.NewRealButton(cfg.GPIO.Chip, cfg.GPIO.Button)
	if err != nil {
		return fmt.Errorf("init button: %w", err)
	}
	defer button.Close()

	pressed, err := button.Read()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Button: %s\n", buttonString(pressed))
	return nil
}

func buttonString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}

func run(cfg *config.Config) error {
	logger, logCloser, err := logging.Open(logging.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logCloser.Close()

	// Initialize GPIO
	button, err := gpio.NewRealButton(cfg.GPIO.Chip, cfg.GPIO.Button)
	if err != nil {
		return fmt.Errorf("init button: %w", err)
	}
	defer button.Close()

	led, err := gpio.NewRealLED(cfg.GPIO.Chip, gpio.LEDPins{
		Red:       cfg.GPIO.LED.Red,
		Green:     cfg.GPIO.LED.Green,
		Blue:      cfg.GPIO.LED.Blue,
		ActiveLow: cfg.GPIO.LED.ActiveLow,
	})
	if err != nil {
		return fmt.Errorf("init led: %w", err)
	}
	defer led.Close()

	rec, closeMetrics := newMetrics(cfg, logger)
	defer closeMetrics()

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, logger)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warnf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Debugf("http status server listening on %s", cfg.HTTP.Addr)
	}

	sched := indicator.NewScheduler(led, indicator.SchedulerConfig{
		QueueSize: cfg.Indicator.QueueSize,
		DefaultA:  cfg.Indicator.On,
		DefaultB:  cfg.Indicator.Off,
		Log:       logger,
	})

	manager := connectivity.NewManager(
		netlink.NewNMCLI(cfg.WiFi.Interface, cfg.Device.Name),
		led,
		timesync.NewClient(cfg.Time.URL, cfg.Time.Timeout, timesync.WithRetries(cfg.Time.Retries)),
		logger,
		connectivityConfig(cfg),
		connectivity.WithMetrics(rec),
		connectivity.WithObserver(func(s connectivity.State) {
			tracker.SetConnectivity(string(s))
		}),
	)

	monitor := input.NewMonitor(button, input.Config{
		Poll:          cfg.Input.Poll,
		Policy:        cfg.Input.Policy,
		Debounce:      cfg.Input.Debounce,
		MaxReadErrors: cfg.Input.MaxReadErrors,
	}, logger, input.WithMetrics(rec))

	ctrl := controller.New(controller.Deps{
		Log:       logger,
		LED:       led,
		Connector: manager,
		Input:     monitor,
		Scheduler: sched,
		Machine:   lock.NewMachine(logger, nil, sched, rec),
		Publisher: publisher,
		Tracker:   tracker,
		Metrics:   rec,
		Device:    cfg.Device.Name,
	})

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case s := <-sigCh:
			logger.Printf("Received %s, shutting down", signalName(s))
			cancel(errors.New(signalName(s)))
		case <-ctx.Done():
		}
	}()

	return ctrl.Supervise(ctx, system.NewExecResetter())
}

func newMetrics(cfg *config.Config, logger *logging.Logger) (metrics.Recorder, func()) {
	if !cfg.Statsd.Enabled {
		return metrics.Noop{}, func() {}
	}
	s, err := metrics.NewStatsd(cfg.Statsd.Addr, cfg.Statsd.Namespace, cfg.Statsd.Tags, logger)
	if err != nil {
		logger.Warnf("statsd disabled: %v", err)
		return metrics.Noop{}, func() {}
	}
	return s, func() { _ = s.Close() }
}

func newPublisher(cfg *config.Config, logger *logging.Logger) (mqtt.Publisher, error) {
	if !cfg.MQTT.Enabled {
		return mqtt.Nop{}, nil
	}
	return mqtt.NewRealPublisher(mqtt.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Device:   cfg.Device.Name,
		Log:      logger,
	})
}

func statusConfig(cfg *config.Config) status.Config {
	sc := status.Config{
		Device:     cfg.Device.Name,
		SSID:       cfg.WiFi.SSID,
		PollMs:     cfg.Input.Poll.Milliseconds(),
		Policy:     cfg.Input.Policy,
		DebounceMs: cfg.Input.Debounce.Milliseconds(),
		HTTPAddr:   cfg.HTTP.Addr,
	}
	if cfg.MQTT.Enabled {
		sc.Broker = cfg.MQTT.Broker
	}
	return sc
}

func connectivityConfig(cfg *config.Config) connectivity.Config {
	return connectivity.Config{
		Credentials: netlink.Credentials{SSID: cfg.WiFi.SSID, Password: cfg.WiFi.Password},
		Address: netlink.AddressConfig{
			IP:      cfg.WiFi.Address.IP,
			Netmask: cfg.WiFi.Address.Netmask,
			Gateway: cfg.WiFi.Address.Gateway,
			DNS:     cfg.WiFi.Address.DNS,
		},
		Blink: cfg.Connect.Blink,
		Retry: connectivity.RetryConfig{
			Initial:     cfg.Connect.InitialInterval,
			Max:         cfg.Connect.MaxInterval,
			Multiplier:  cfg.Connect.Multiplier,
			MaxAttempts: cfg.Connect.MaxAttempts,
		},
		ConnectedStatus: cfg.Connect.ConnectedStatus,
		DegradedHold:    cfg.Connect.DegradedHold,
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
