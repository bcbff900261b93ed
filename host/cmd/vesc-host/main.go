package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"govesc/host/controller"
	"govesc/host/serial"
	"govesc/protocol"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	timeout = flag.Duration("timeout", 500*time.Millisecond, "Reply timeout")
)

func main() {
	flag.Parse()

	fmt.Println("govesc host - VESC protocol command console")
	fmt.Println("===========================================")
	fmt.Println()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Connecting to controller on %s...\n", *device)
	ctrl, err := controller.ConnectWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer ctrl.Close()
	ctrl.SetTimeout(*timeout)

	fmt.Println("Connected successfully!")
	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]

		switch cmd {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()

		case "values":
			runValues(ctrl, parts[1:])

		case "watch":
			runWatch(ctrl, parts[1:])

		case "rpm":
			runSetpoint(parts[1:], func(v float64) error {
				return ctrl.SetRPM(int32(v))
			})

		case "current":
			runSetpoint(parts[1:], func(v float64) error {
				return ctrl.SetCurrent(float32(v))
			})

		case "handbrake":
			runSetpoint(parts[1:], func(v float64) error {
				return ctrl.SetHandbrake(float32(v))
			})

		case "release":
			if err := ctrl.Release(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}

		case "can":
			runCan(ctrl, parts[1:])

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", cmd)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help                  - Show this help message")
	fmt.Println("  values [field...]     - Read telemetry; with fields, a selective read")
	fmt.Println("                          (fields: " + strings.Join(protocol.MaskNames(), ", ") + ")")
	fmt.Println("  watch <field...>      - Poll selected fields once a second until enter")
	fmt.Println("  rpm <value>           - Set motor speed in RPM")
	fmt.Println("  current <amps>        - Set motor current in amperes")
	fmt.Println("  handbrake <amps>      - Apply braking current")
	fmt.Println("  release               - Zero the current setpoint")
	fmt.Println("  can <id> <cmd> ...    - Run a command on a CAN-attached controller")
	fmt.Println("  quit/exit/q           - Exit the program")
	fmt.Println()
}

func parseMask(names []string) (protocol.ValuesMask, error) {
	var mask protocol.ValuesMask
	for _, name := range names {
		bit, ok := protocol.MaskByName(name)
		if !ok {
			return 0, fmt.Errorf("unknown field %q", name)
		}
		mask |= bit
	}
	return mask, nil
}

func runValues(ctrl *controller.Controller, fields []string) {
	if len(fields) == 0 {
		values, err := ctrl.GetValues()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		printValues(values, protocol.MaskAll)
		return
	}

	mask, err := parseMask(fields)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	values, err := ctrl.GetValuesSelective(mask)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	printValues(values, mask)
}

func runWatch(ctrl *controller.Controller, fields []string) {
	mask, err := parseMask(fields)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	if mask == 0 {
		mask = protocol.MaskRPM | protocol.MaskVoltageIn | protocol.MaskAvgCurrentMotor
	}

	stop := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadBytes('\n')
		close(stop)
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	fmt.Println("Watching (press enter to stop)...")
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			values, err := ctrl.GetValuesSelective(mask)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			printValues(values, mask)
		}
	}
}

func runSetpoint(args []string, apply func(float64) error) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected exactly one value")
		return
	}
	v, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid value %q\n", args[0])
		return
	}
	if err := apply(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}

func runCan(ctrl *controller.Controller, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Error: usage: can <id> <values|rpm|current|handbrake> [args]")
		return
	}
	id, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid CAN id %q\n", args[0])
		return
	}
	remote := ctrl.OnCAN(uint8(id))

	switch args[1] {
	case "values":
		values, err := remote.GetValues()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		printValues(values, protocol.MaskAll)
	case "rpm":
		runSetpoint(args[2:], func(v float64) error { return remote.SetRPM(int32(v)) })
	case "current":
		runSetpoint(args[2:], func(v float64) error { return remote.SetCurrent(float32(v)) })
	case "handbrake":
		runSetpoint(args[2:], func(v float64) error { return remote.SetHandbrake(float32(v)) })
	default:
		fmt.Printf("Unknown CAN command: %s\n", args[1])
	}
}

func printValues(v protocol.Values, mask protocol.ValuesMask) {
	show := func(bit protocol.ValuesMask, name string, format string, args ...any) {
		if mask.Has(bit) {
			fmt.Printf("  %-20s "+format+"\n", append([]any{name}, args...)...)
		}
	}

	show(protocol.MaskTempMosfet, "temp_mosfet", "%.1f C", v.TempMosfet)
	show(protocol.MaskTempMotor, "temp_motor", "%.1f C", v.TempMotor)
	show(protocol.MaskAvgCurrentMotor, "avg_current_motor", "%.2f A", v.AvgCurrentMotor)
	show(protocol.MaskAvgCurrentInput, "avg_current_input", "%.2f A", v.AvgCurrentInput)
	show(protocol.MaskAvgCurrentD, "avg_current_d", "%.2f A", v.AvgCurrentD)
	show(protocol.MaskAvgCurrentQ, "avg_current_q", "%.2f A", v.AvgCurrentQ)
	show(protocol.MaskDutyCycle, "duty_cycle", "%.3f", v.DutyCycle)
	show(protocol.MaskRPM, "rpm", "%.0f", v.RPM)
	show(protocol.MaskVoltageIn, "voltage_in", "%.1f V", v.VoltageIn)
	show(protocol.MaskAmpHours, "amp_hours", "%.4f Ah", v.AmpHours)
	show(protocol.MaskAmpHoursCharged, "amp_hours_charged", "%.4f Ah", v.AmpHoursCharged)
	show(protocol.MaskWattHours, "watt_hours", "%.4f Wh", v.WattHours)
	show(protocol.MaskWattHoursCharged, "watt_hours_charged", "%.4f Wh", v.WattHoursCharged)
	show(protocol.MaskTachometer, "tachometer", "%d", v.Tachometer)
	show(protocol.MaskTachometerAbs, "tachometer_abs", "%d", v.TachometerAbs)
	show(protocol.MaskFaultCode, "fault_code", "%d", v.FaultCode)
	show(protocol.MaskPIDPos, "pid_pos", "%.6f", v.PIDPos)
	show(protocol.MaskControllerID, "controller_id", "%d", v.ControllerID)
	show(protocol.MaskTempMosfetAll, "temp_mosfet_1/2/3", "%.1f / %.1f / %.1f C", v.TempMosfet1, v.TempMosfet2, v.TempMosfet3)
	show(protocol.MaskAvgVoltageD, "avg_voltage_d", "%.3f V", v.AvgVoltageD)
	show(protocol.MaskAvgVoltageQ, "avg_voltage_q", "%.3f V", v.AvgVoltageQ)
	show(protocol.MaskStatus, "status", "0x%02X", v.Status)
	fmt.Println()
}
