package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"govesc/bridge"
	"govesc/host/controller"
	"govesc/host/serial"
)

var configPath = flag.String("config", "config.yaml", "Path to the bridge configuration file")

func main() {
	flag.Parse()

	cfg, err := bridge.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	serialCfg := serial.DefaultConfig(cfg.Serial.Device)
	serialCfg.Baud = cfg.Serial.Baud

	ctrl, err := controller.ConnectWithConfig(serialCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect to controller: %v\n", err)
		os.Exit(1)
	}
	defer ctrl.Close()

	// Address a CAN-attached controller when configured.
	var motor bridge.MotorClient = ctrl
	if cfg.Poll.CANID >= 0 {
		motor = ctrl.OnCAN(uint8(cfg.Poll.CANID))
	}

	b, err := bridge.New(cfg, motor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := b.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	b.Stop()
}
