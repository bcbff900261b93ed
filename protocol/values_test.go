package protocol

import "testing"

func TestMaskByName(t *testing.T) {
	// Field group names in wire order; index i corresponds to bit 1<<i.
	wireOrder := []string{
		"temp_mosfet",
		"temp_motor",
		"avg_current_motor",
		"avg_current_input",
		"avg_current_d",
		"avg_current_q",
		"duty_cycle",
		"rpm",
		"voltage_in",
		"amp_hours",
		"amp_hours_charged",
		"watt_hours",
		"watt_hours_charged",
		"tachometer",
		"tachometer_abs",
		"fault_code",
		"pid_pos",
		"controller_id",
		"temp_mosfet_all",
		"avg_voltage_d",
		"avg_voltage_q",
		"status",
	}

	for i, name := range wireOrder {
		bit, ok := MaskByName(name)
		if !ok {
			t.Errorf("MaskByName(%q) not found", name)
			continue
		}
		if expected := ValuesMask(1) << i; bit != expected {
			t.Errorf("MaskByName(%q) = %#x, expected %#x", name, bit, expected)
		}
	}

	if _, ok := MaskByName("warp_drive"); ok {
		t.Error("MaskByName accepted an unknown field name")
	}
	if _, ok := MaskByName(""); ok {
		t.Error("MaskByName accepted an empty field name")
	}
}

func TestMaskNames(t *testing.T) {
	names := MaskNames()
	if len(names) != 22 {
		t.Fatalf("MaskNames returned %d names, expected 22", len(names))
	}
	if names[0] != "temp_mosfet" || names[21] != "status" {
		t.Errorf("unexpected name order: first %q, last %q", names[0], names[21])
	}

	// Every listed name resolves, and ORing them all together covers
	// exactly the defined bits.
	var all ValuesMask
	for _, name := range names {
		bit, ok := MaskByName(name)
		if !ok {
			t.Errorf("MaskNames entry %q does not resolve", name)
		}
		all |= bit
	}
	if all != MaskAll {
		t.Errorf("union of named bits = %#x, expected MaskAll %#x", all, MaskAll)
	}
}

func TestMaskHas(t *testing.T) {
	m := MaskRPM | MaskVoltageIn
	if !m.Has(MaskRPM) || !m.Has(MaskVoltageIn) {
		t.Error("Has missed a set bit")
	}
	if m.Has(MaskDutyCycle) {
		t.Error("Has reported an unset bit")
	}
	if !m.Has(MaskRPM | MaskVoltageIn) {
		t.Error("Has requires every bit of the flag to be set")
	}
	if m.Has(MaskRPM | MaskDutyCycle) {
		t.Error("Has matched a partially set flag")
	}
}
