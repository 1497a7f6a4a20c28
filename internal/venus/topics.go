package venus

import "strings"

// KeepaliveTopic is the request topic the broker expects a periodic
// publish on to keep streaming notifications for an installation.
func KeepaliveTopic(installationID string) string {
	return "R/" + installationID + "/keepalive"
}

// InstallationIDFromTopic extracts the installation id from a system
// serial notification (N/<id>/system/<instance>/Serial). Used to learn
// the id when it is not configured.
func InstallationIDFromTopic(topic string) (string, bool) {
	segments := strings.Split(topic, "/")
	if len(segments) == 5 && segments[0] == "N" && segments[2] == "system" && segments[4] == "Serial" {
		return segments[1], true
	}
	return "", false
}

// DefaultDescriptors is the built-in topic table for Venus OS
// installations. Callers may append their own descriptors before
// building the registry.
func DefaultDescriptors() []TopicDescriptor {
	return []TopicDescriptor{
		// Device attributes, shared by every category.
		{Topic: "N/+/+/+/ProductName", ShortID: attrModel, Name: "Model", Kind: KindAttribute, ValueType: ValueString},
		{Topic: "N/+/+/+/Serial", ShortID: attrSerialNumber, Name: "Serial number", Kind: KindAttribute, ValueType: ValueString},
		{Topic: "N/+/+/+/FirmwareVersion", ShortID: attrFirmware, Name: "Firmware version", Kind: KindAttribute, ValueType: ValueString},
		{Topic: "N/+/+/+/CustomName", ShortID: attrCustomName, Name: "Custom name", Kind: KindAttribute, ValueType: ValueString},

		// System.
		{Topic: "N/+/system/+/SystemState/State", ShortID: "system_state", Name: "System state", Kind: KindSensor, ValueType: ValueEnum, Enum: EnumDeviceState},
		{Topic: "N/+/system/+/Ac/Grid/{phase}/Power", ShortID: "system_grid_power_{phase}", Name: "Grid power on {phase}", Unit: "W", Kind: KindSensor, MetricType: TypePower, Nature: NatureInstant, ValueType: ValueFloat, Precision: 0},
		{Topic: "N/+/system/+/Ac/Consumption/{phase}/Power", ShortID: "system_consumption_power_{phase}", Name: "Consumption on {phase}", Unit: "W", Kind: KindSensor, MetricType: TypePower, Nature: NatureInstant, ValueType: ValueFloat, Precision: 0},
		{Topic: "N/+/system/+/Dc/Battery/Power", ShortID: "system_battery_power", Name: "Battery power", Unit: "W", Kind: KindSensor, MetricType: TypePower, Nature: NatureInstant, ValueType: ValueFloat, Precision: 0},
		{Topic: "N/+/system/+/Relay/{relay}/State", ShortID: "system_relay_{relay}_state", Name: "Relay {relay} state", Kind: KindSwitch, ValueType: ValueEnum, Enum: EnumGenericOnOff},
		{Topic: "N/+/settings/+/Settings/CGwacs/AcPowerSetPoint", ShortID: "system_ac_power_setpoint", Name: "Grid set point", Unit: "W", Kind: KindNumber, MetricType: TypePower, ValueType: ValueFloat, Precision: 0, Min: f64(-100000), Max: f64(100000)},
		{Topic: "N/+/platform/+/Firmware/Installed/Version", ShortID: "venus_firmware_version", Name: "Venus OS version", Kind: KindSensor, Nature: NatureInformational, ValueType: ValueString},

		// Battery monitor.
		{Topic: "N/+/battery/+/Soc", ShortID: "battery_soc", Name: "Battery charge", Unit: "%", Kind: KindSensor, MetricType: TypePercentage, Nature: NatureInstant, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/battery/+/Dc/0/Voltage", ShortID: "battery_voltage", Name: "Battery voltage", Unit: "V", Kind: KindSensor, MetricType: TypeVoltage, Nature: NatureInstant, ValueType: ValueFloat, Precision: 2},
		{Topic: "N/+/battery/+/Dc/0/Current", ShortID: "battery_current", Name: "Battery current", Unit: "A", Kind: KindSensor, MetricType: TypeCurrent, Nature: NatureInstant, ValueType: ValueFloat, Precision: 2},
		{Topic: "N/+/battery/+/Dc/0/Power", ShortID: "battery_power", Name: "Battery power", Unit: "W", Kind: KindSensor, MetricType: TypePower, Nature: NatureInstant, ValueType: ValueFloat, Precision: 0},
		{Topic: "N/+/battery/+/Dc/0/Temperature", ShortID: "battery_temperature", Name: "Battery temperature", Unit: "°C", Kind: KindSensor, MetricType: TypeTemperature, Nature: NatureInstant, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/battery/+/History/DischargedEnergy", ShortID: "battery_discharged_energy", Name: "Battery discharged energy", Unit: "kWh", Kind: KindSensor, MetricType: TypeEnergy, Nature: NatureCumulative, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/battery/+/History/ChargedEnergy", ShortID: "battery_charged_energy", Name: "Battery charged energy", Unit: "kWh", Kind: KindSensor, MetricType: TypeEnergy, Nature: NatureCumulative, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/battery/+/Capacity", ShortID: "battery_capacity", Name: "Battery capacity", Unit: "Ah", Kind: KindSensor, Nature: NatureInformational, ValueType: ValueFloat, Precision: 1},

		// Grid meter.
		{Topic: "N/+/grid/+/Ac/{phase}/Power", ShortID: "grid_power_{phase}", Name: "Grid power on {phase}", Unit: "W", Kind: KindSensor, MetricType: TypePower, Nature: NatureInstant, ValueType: ValueFloat, Precision: 0},
		{Topic: "N/+/grid/+/Ac/{phase}/Voltage", ShortID: "grid_voltage_{phase}", Name: "Grid voltage on {phase}", Unit: "V", Kind: KindSensor, MetricType: TypeVoltage, Nature: NatureInstant, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/grid/+/Ac/{phase}/Current", ShortID: "grid_current_{phase}", Name: "Grid current on {phase}", Unit: "A", Kind: KindSensor, MetricType: TypeCurrent, Nature: NatureInstant, ValueType: ValueFloat, Precision: 2},
		{Topic: "N/+/grid/+/Ac/{phase}/Energy/Forward", ShortID: "grid_energy_forward_{phase}", Name: "Grid consumption on {phase}", Unit: "kWh", Kind: KindSensor, MetricType: TypeEnergy, Nature: NatureCumulative, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/grid/+/Ac/{phase}/Energy/Reverse", ShortID: "grid_energy_reverse_{phase}", Name: "Grid feed-in on {phase}", Unit: "kWh", Kind: KindSensor, MetricType: TypeEnergy, Nature: NatureCumulative, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/grid/+/Ac/Frequency", ShortID: "grid_frequency", Name: "Grid frequency", Unit: "Hz", Kind: KindSensor, MetricType: TypeFrequency, Nature: NatureInstant, ValueType: ValueFloat, Precision: 2},
		{Topic: "N/+/grid/+/Ac/PENVoltage", ShortID: "grid_pen_voltage", Name: "Grid PEN voltage", Unit: "V", Kind: KindSensor, MetricType: TypeVoltage, Nature: NatureInstant, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/grid/+/Ac/NumberOfPhases", ShortID: "grid_phase_count", Name: "Grid phase count", Kind: KindSensor, Nature: NatureInformational, ValueType: ValueIntZero},

		// Inverter/charger (vebus).
		{Topic: "N/+/vebus/+/Ac/ActiveIn/{phase}/P", ShortID: "vebus_input_power_{phase}", Name: "Input power on {phase}", Unit: "W", Kind: KindSensor, MetricType: TypePower, Nature: NatureInstant, ValueType: ValueFloat, Precision: 0},
		{Topic: "N/+/vebus/+/Ac/Out/{phase}/P", ShortID: "vebus_output_power_{phase}", Name: "Output power on {phase}", Unit: "W", Kind: KindSensor, MetricType: TypePower, Nature: NatureInstant, ValueType: ValueFloat, Precision: 0},
		{Topic: "N/+/vebus/+/Mode", ShortID: "vebus_mode", Name: "Inverter mode", Kind: KindSelect, ValueType: ValueEnum, Enum: EnumInverterMode},
		{Topic: "N/+/vebus/+/State", ShortID: "vebus_state", Name: "Inverter state", Kind: KindSensor, ValueType: ValueEnum, Enum: EnumDeviceState},
		{Topic: "N/+/vebus/+/Soc", ShortID: "vebus_soc", Name: "State of charge", Unit: "%", Kind: KindSensor, MetricType: TypePercentage, Nature: NatureInstant, ValueType: ValueFloat, Precision: 1},

		// Solar charger.
		{Topic: "N/+/solarcharger/+/Yield/Power", ShortID: "solar_power", Name: "Solar power", Unit: "W", Kind: KindSensor, MetricType: TypePower, Nature: NatureInstant, ValueType: ValueFloat, Precision: 0},
		{Topic: "N/+/solarcharger/+/Yield/User", ShortID: "solar_yield", Name: "Solar yield", Unit: "kWh", Kind: KindSensor, MetricType: TypeEnergy, Nature: NatureCumulative, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/solarcharger/+/Dc/0/Voltage", ShortID: "solar_battery_voltage", Name: "Charger output voltage", Unit: "V", Kind: KindSensor, MetricType: TypeVoltage, Nature: NatureInstant, ValueType: ValueFloat, Precision: 2},
		{Topic: "N/+/solarcharger/+/Dc/0/Current", ShortID: "solar_battery_current", Name: "Charger output current", Unit: "A", Kind: KindSensor, MetricType: TypeCurrent, Nature: NatureInstant, ValueType: ValueFloat, Precision: 2},
		{Topic: "N/+/solarcharger/+/State", ShortID: "solar_state", Name: "Charger state", Kind: KindSensor, ValueType: ValueEnum, Enum: EnumDeviceState},

		// PV inverter.
		{Topic: "N/+/pvinverter/+/Ac/{phase}/Power", ShortID: "pv_power_{phase}", Name: "PV power on {phase}", Unit: "W", Kind: KindSensor, MetricType: TypePower, Nature: NatureInstant, ValueType: ValueFloat, Precision: 0},
		{Topic: "N/+/pvinverter/+/Ac/Power", ShortID: "pv_power", Name: "PV power", Unit: "W", Kind: KindSensor, MetricType: TypePower, Nature: NatureInstant, ValueType: ValueFloat, Precision: 0},
		{Topic: "N/+/pvinverter/+/Ac/Energy/Forward", ShortID: "pv_energy_forward", Name: "PV production", Unit: "kWh", Kind: KindSensor, MetricType: TypeEnergy, Nature: NatureCumulative, ValueType: ValueFloat, Precision: 1},

		// EV charger.
		{Topic: "N/+/evcharger/+/Status", ShortID: "evcharger_status", Name: "Charger status", Kind: KindSensor, ValueType: ValueEnum, Enum: EnumEvChargerStatus},
		{Topic: "N/+/evcharger/+/Mode", ShortID: "evcharger_mode", Name: "Charger mode", Kind: KindSelect, ValueType: ValueEnum, Enum: EnumEvChargerMode},
		{Topic: "N/+/evcharger/+/SetCurrent", ShortID: "evcharger_set_current", Name: "Charge current limit", Unit: "A", Kind: KindNumber, MetricType: TypeCurrent, ValueType: ValueInt, Min: f64(0), Max: f64(32)},
		{Topic: "N/+/evcharger/+/StartStop", ShortID: "evcharger_start_stop", Name: "Start charging", Kind: KindSwitch, ValueType: ValueEnum, Enum: EnumGenericOnOff},
		{Topic: "N/+/evcharger/+/Ac/Power", ShortID: "evcharger_power", Name: "Charging power", Unit: "W", Kind: KindSensor, MetricType: TypePower, Nature: NatureInstant, ValueType: ValueFloat, Precision: 0},
		{Topic: "N/+/evcharger/+/Ac/Energy/Forward", ShortID: "evcharger_energy_forward", Name: "Charged energy", Unit: "kWh", Kind: KindSensor, MetricType: TypeEnergy, Nature: NatureCumulative, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/evcharger/+/Current", ShortID: "evcharger_current", Name: "Charging current", Unit: "A", Kind: KindSensor, MetricType: TypeCurrent, Nature: NatureInstant, ValueType: ValueFloat, Precision: 1},

		// Temperature sensors.
		{Topic: "N/+/temperature/+/Temperature", ShortID: "sensor_temperature", Name: "Temperature", Unit: "°C", Kind: KindSensor, MetricType: TypeTemperature, Nature: NatureInstant, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/temperature/+/Humidity", ShortID: "sensor_humidity", Name: "Humidity", Unit: "%", Kind: KindSensor, MetricType: TypePercentage, Nature: NatureInstant, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/temperature/+/Status", ShortID: "sensor_status", Name: "Sensor status", Kind: KindSensor, ValueType: ValueEnum, Enum: EnumTemperatureStatus},
		{Topic: "N/+/temperature/+/TemperatureType", ShortID: "sensor_type", Name: "Sensor type", Kind: KindSensor, Nature: NatureInformational, ValueType: ValueEnum, Enum: EnumTemperatureType},

		// Tanks.
		{Topic: "N/+/tank/+/Level", ShortID: "tank_level", Name: "Tank level", Unit: "%", Kind: KindSensor, MetricType: TypePercentage, Nature: NatureInstant, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/tank/+/Remaining", ShortID: "tank_remaining", Name: "Tank remaining", Unit: "m³", Kind: KindSensor, MetricType: TypeLiquid, Nature: NatureInstant, ValueType: ValueFloat, Precision: 3},
		{Topic: "N/+/tank/+/Capacity", ShortID: "tank_capacity", Name: "Tank capacity", Unit: "m³", Kind: KindSensor, MetricType: TypeLiquid, Nature: NatureInformational, ValueType: ValueFloat, Precision: 3},
		{Topic: "N/+/tank/+/FluidType", ShortID: "tank_fluid_type", Name: "Fluid type", Kind: KindSensor, Nature: NatureInformational, ValueType: ValueEnum, Enum: EnumFluidType},

		// GPS.
		{Topic: "N/+/gps/+/Position/Latitude", ShortID: "gps_latitude", Name: "Latitude", Unit: "°", Kind: KindSensor, Nature: NatureInstant, ValueType: ValueFloat, Precision: 6},
		{Topic: "N/+/gps/+/Position/Longitude", ShortID: "gps_longitude", Name: "Longitude", Unit: "°", Kind: KindSensor, Nature: NatureInstant, ValueType: ValueFloat, Precision: 6},
		{Topic: "N/+/gps/+/Speed", ShortID: "gps_speed", Name: "Speed", Unit: "m/s", Kind: KindSensor, MetricType: TypeSpeed, Nature: NatureInstant, ValueType: ValueFloat, Precision: 2},
		{Topic: "N/+/gps/+/Course", ShortID: "gps_course", Name: "Course", Unit: "°", Kind: KindSensor, Nature: NatureInstant, ValueType: ValueFloat, Precision: 1},
	}
}
