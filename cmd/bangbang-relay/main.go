// Command bangbang-relay drives a GPIO relay through a dwell-gated bang-bang
// controller, taking commands over HTTP and MQTT and publishing transitions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweeney/bangbang"
	"github.com/sweeney/bangbang/internal/gpio"
	"github.com/sweeney/bangbang/internal/metrics"
	"github.com/sweeney/bangbang/internal/mqtt"
	"github.com/sweeney/bangbang/internal/relay"
	"github.com/sweeney/bangbang/internal/status"
	"github.com/sweeney/bangbang/internal/web"
)

type options struct {
	chip      string
	pin       int
	activeLow bool
	initial   bangbang.State
	dwell     time.Duration
	broker    string
	topic     string
	clientID  string
	heartbeat time.Duration
	httpAddr  string
}

func main() {
	var opts options
	initial := flag.String("initial", "off", "Initial relay state (on|off)")
	flag.StringVar(&opts.chip, "chip", gpio.DefaultChip, "GPIO chip name")
	flag.IntVar(&opts.pin, "pin", gpio.DefaultPin, "BCM pin number driving the relay")
	flag.BoolVar(&opts.activeLow, "active-low", false, "Relay energises when the pin is driven low")
	flag.DurationVar(&opts.dwell, "dwell", 30*time.Second, "Minimum time in a state before switching again")
	flag.StringVar(&opts.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&opts.topic, "topic", mqtt.DefaultTopicPrefix, "MQTT topic prefix")
	flag.StringVar(&opts.clientID, "client-id", "", "MQTT client ID (random if empty)")
	flag.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.StringVar(&opts.httpAddr, "http", ":80", "HTTP status address (empty to disable)")

	flag.Parse()

	st, err := bangbang.ParseState(*initial)
	if err != nil {
		log.Fatalf("fatal: -initial: %v", err)
	}
	opts.initial = st

	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(opts options) error {
	// Initialize GPIO
	out, err := gpio.NewRealOutput(opts.chip, opts.pin, opts.activeLow, opts.initial.Bool())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer out.Close()

	// Initialize MQTT
	topics := mqtt.TopicsFor(opts.topic)
	publisher := mqtt.NewRealPublisher(opts.broker, opts.clientID, topics)
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	clk := bangbang.SystemClock{}
	startTime := clk.Now()
	tracker := status.NewTracker(clk, startTime, opts.initial, status.Config{
		Chip:        opts.chip,
		Pin:         opts.pin,
		ActiveLow:   opts.activeLow,
		DwellMs:     opts.dwell.Milliseconds(),
		HeartbeatMs: opts.heartbeat.Milliseconds(),
		Broker:      opts.broker,
		Topic:       opts.topic,
		HTTPAddr:    opts.httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg, opts.initial, startTime)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	svc := relay.New(relay.Config{
		Initial: opts.initial,
		Dwell:   opts.dwell,
		Clock:   clk,
		Output:  out,
		Observer: bangbang.Observers{
			bangbang.LogObserver(nil),
			tracker,
			m,
			mqtt.Observer(publisher),
		},
		Failures: []relay.FailureRecorder{tracker, m},
	})

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker, svc, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	// MQTT commands are applied on the run loop goroutine.
	cmds := make(chan mqtt.Command, 16)
	if err := publisher.Subscribe(func(cmd mqtt.Command) {
		select {
		case cmds <- cmd:
		default:
			log.Printf("command queue full, dropping %s", cmd)
		}
	}); err != nil {
		log.Printf("failed to subscribe to %s: %v", topics.Set, err)
	}

	log.Printf("started: state=%s dwell=%v pin=%s/%d broker=%s heartbeat=%v",
		status.StateName(opts.initial), opts.dwell, opts.chip, opts.pin, opts.broker, opts.heartbeat)

	var heartbeat <-chan time.Time
	if opts.heartbeat > 0 {
		ticker := time.NewTicker(opts.heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(svc, publisher, publisher, tracker, clk.Now, heartbeat, cmds, sigCh)
}

func runLoop(svc *relay.Service, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, now func() time.Time, heartbeat <-chan time.Time, cmds <-chan mqtt.Command, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			publishStatus(publisher, mqttStatus, tracker, now(), "SHUTDOWN", signalName, true)
			return nil

		case cmd := <-cmds:
			log.Printf("command: %s", cmd)
			// Failures are logged and counted by the relay service.
			_ = svc.Apply(cmd)

		case <-heartbeat:
			if net := readNetworkInfo(); net != nil {
				tracker.SetNetwork(net)
			}
			snap := publishStatus(publisher, mqttStatus, tracker, now(), "HEARTBEAT", "", false)
			log.Printf("heartbeat: uptime=%v state=%s to_on=%d to_off=%d rejected=%d failed=%d mqtt_buffered=%d",
				snap.Uptime().Truncate(time.Second), status.StateName(snap.State),
				snap.Counts.ToOn, snap.Counts.ToOff, snap.Counts.Rejected, snap.Counts.Failed, snap.MQTTBuffered)
		}
	}
}

// publishStatus sends a system event carrying a full status snapshot and
// returns the snapshot it sent.
func publishStatus(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, at time.Time, event, reason string, retained bool) status.Snapshot {
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
		tracker.SetMQTTBuffered(mqttStatus.Buffered())
	}
	snap := tracker.Snapshot()
	sysEvent := mqtt.SystemEvent{
		Timestamp:  at,
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := publisher.PublishSystem(sysEvent); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
	} else if event != "HEARTBEAT" {
		log.Printf("published %s event", event)
	}
	return snap
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
