package protocol

// ValuesMask selects which telemetry field groups a GetValuesSelective
// exchange carries. Combine flags with bitwise OR; test membership with
// Has. Bits outside the defined set are retained as-is so frames from
// newer firmware revisions survive a decode/re-encode cycle.
type ValuesMask uint32

// One bit per telemetry field group, in wire field order.
const (
	MaskTempMosfet ValuesMask = 1 << iota
	MaskTempMotor
	MaskAvgCurrentMotor
	MaskAvgCurrentInput
	MaskAvgCurrentD
	MaskAvgCurrentQ
	MaskDutyCycle
	MaskRPM
	MaskVoltageIn
	MaskAmpHours
	MaskAmpHoursCharged
	MaskWattHours
	MaskWattHoursCharged
	MaskTachometer
	MaskTachometerAbs
	MaskFaultCode
	MaskPIDPos
	MaskControllerID
	MaskTempMosfetAll // Gates all three per-MOSFET temperatures as one group
	MaskAvgVoltageD
	MaskAvgVoltageQ
	MaskStatus

	// MaskAll selects every defined field group.
	MaskAll ValuesMask = MaskStatus<<1 - 1
)

// Has reports whether every bit of flag is set in the mask.
func (m ValuesMask) Has(flag ValuesMask) bool {
	return m&flag == flag
}

// maskNames maps configuration/display names to mask bits, in wire order.
var maskNames = []struct {
	name string
	bit  ValuesMask
}{
	{"temp_mosfet", MaskTempMosfet},
	{"temp_motor", MaskTempMotor},
	{"avg_current_motor", MaskAvgCurrentMotor},
	{"avg_current_input", MaskAvgCurrentInput},
	{"avg_current_d", MaskAvgCurrentD},
	{"avg_current_q", MaskAvgCurrentQ},
	{"duty_cycle", MaskDutyCycle},
	{"rpm", MaskRPM},
	{"voltage_in", MaskVoltageIn},
	{"amp_hours", MaskAmpHours},
	{"amp_hours_charged", MaskAmpHoursCharged},
	{"watt_hours", MaskWattHours},
	{"watt_hours_charged", MaskWattHoursCharged},
	{"tachometer", MaskTachometer},
	{"tachometer_abs", MaskTachometerAbs},
	{"fault_code", MaskFaultCode},
	{"pid_pos", MaskPIDPos},
	{"controller_id", MaskControllerID},
	{"temp_mosfet_all", MaskTempMosfetAll},
	{"avg_voltage_d", MaskAvgVoltageD},
	{"avg_voltage_q", MaskAvgVoltageQ},
	{"status", MaskStatus},
}

// MaskByName returns the mask bit for a telemetry field group name, such
// as "rpm" or "temp_mosfet_all". The second result is false for unknown
// names.
func MaskByName(name string) (ValuesMask, bool) {
	for _, e := range maskNames {
		if e.name == name {
			return e.bit, true
		}
	}
	return 0, false
}

// MaskNames returns the names of all defined field groups in wire order.
func MaskNames() []string {
	names := make([]string, len(maskNames))
	for i, e := range maskNames {
		names[i] = e.name
	}
	return names
}

// Values is the flat telemetry record reported by the motor controller.
// Each decode constructs a fresh record; with a selective reply only the
// fields named by the mask are overwritten, all others stay at their zero
// default. A zero therefore means either "not requested" or "reported as
// zero"; check the reply's mask to tell the two apart.
type Values struct {
	TempMosfet       float32 `json:"temp_mosfet"`
	TempMotor        float32 `json:"temp_motor"`
	AvgCurrentMotor  float32 `json:"avg_current_motor"`
	AvgCurrentInput  float32 `json:"avg_current_input"`
	AvgCurrentD      float32 `json:"avg_current_d"`
	AvgCurrentQ      float32 `json:"avg_current_q"`
	DutyCycle        float32 `json:"duty_cycle"`
	RPM              float32 `json:"rpm"`
	VoltageIn        float32 `json:"voltage_in"`
	AmpHours         float32 `json:"amp_hours"`
	AmpHoursCharged  float32 `json:"amp_hours_charged"`
	WattHours        float32 `json:"watt_hours"`
	WattHoursCharged float32 `json:"watt_hours_charged"`
	Tachometer       int32   `json:"tachometer"`
	TachometerAbs    int32   `json:"tachometer_abs"`
	FaultCode        uint8   `json:"fault_code"`
	PIDPos           float32 `json:"pid_pos"`
	ControllerID     uint8   `json:"controller_id"`
	TempMosfet1      float32 `json:"temp_mosfet1"`
	TempMosfet2      float32 `json:"temp_mosfet2"`
	TempMosfet3      float32 `json:"temp_mosfet3"`
	AvgVoltageD      float32 `json:"avg_voltage_d"`
	AvgVoltageQ      float32 `json:"avg_voltage_q"`
	Status           uint8   `json:"status"`
}
