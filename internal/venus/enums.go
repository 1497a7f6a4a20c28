package venus

// EnumValue pairs a numeric wire code with its symbolic label.
type EnumValue struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

// EnumTable is a closed set of enum values for one descriptor family.
type EnumTable struct {
	Name    string
	values  []EnumValue
	byCode  map[int]EnumValue
	byLabel map[string]EnumValue
}

func NewEnumTable(name string, values ...EnumValue) *EnumTable {
	t := &EnumTable{
		Name:    name,
		values:  values,
		byCode:  make(map[int]EnumValue, len(values)),
		byLabel: make(map[string]EnumValue, len(values)),
	}
	for _, v := range values {
		t.byCode[v.Code] = v
		t.byLabel[v.Label] = v
	}
	return t
}

func (t *EnumTable) ByCode(code int) (EnumValue, bool) {
	v, ok := t.byCode[code]
	return v, ok
}

func (t *EnumTable) ByLabel(label string) (EnumValue, bool) {
	v, ok := t.byLabel[label]
	return v, ok
}

// Labels returns the labels in declaration order, for select metrics.
func (t *EnumTable) Labels() []string {
	labels := make([]string, len(t.values))
	for i, v := range t.values {
		labels[i] = v.Label
	}
	return labels
}

var EnumGenericOnOff = NewEnumTable("generic_on_off",
	EnumValue{0, "Off"},
	EnumValue{1, "On"},
)

var EnumDeviceState = NewEnumTable("device_state",
	EnumValue{0, "Off"},
	EnumValue{1, "Low Power"},
	EnumValue{2, "Fault"},
	EnumValue{3, "Bulk"},
	EnumValue{4, "Absorption"},
	EnumValue{5, "Float"},
	EnumValue{6, "Storage"},
	EnumValue{7, "Equalize"},
	EnumValue{8, "Passthru"},
	EnumValue{9, "Inverting"},
	EnumValue{10, "Power assist"},
	EnumValue{11, "Power supply"},
	EnumValue{252, "External control"},
)

var EnumEvChargerMode = NewEnumTable("evcharger_mode",
	EnumValue{0, "Manual"},
	EnumValue{1, "Auto"},
	EnumValue{2, "Scheduled charge"},
)

var EnumEvChargerStatus = NewEnumTable("evcharger_status",
	EnumValue{0, "Disconnected"},
	EnumValue{1, "Connected"},
	EnumValue{2, "Charging"},
	EnumValue{3, "Charged"},
	EnumValue{4, "Waiting for sun"},
	EnumValue{5, "Waiting for RFID"},
	EnumValue{6, "Waiting for start"},
	EnumValue{7, "Low SOC"},
	EnumValue{8, "Ground fault"},
	EnumValue{9, "Welded contacts"},
	EnumValue{10, "CP input shorted"},
	EnumValue{11, "Residual current detected"},
	EnumValue{12, "Under voltage detected"},
	EnumValue{13, "Overvoltage detected"},
	EnumValue{14, "Overheating detected"},
)

var EnumInverterMode = NewEnumTable("inverter_mode",
	EnumValue{1, "Charger Only"},
	EnumValue{2, "Inverter Only"},
	EnumValue{3, "On"},
	EnumValue{4, "Off"},
)

var EnumTemperatureStatus = NewEnumTable("temperature_status",
	EnumValue{0, "OK"},
	EnumValue{1, "Disconnected"},
	EnumValue{2, "Short circuited"},
	EnumValue{3, "Reverse polarity"},
	EnumValue{4, "Unknown"},
)

var EnumTemperatureType = NewEnumTable("temperature_type",
	EnumValue{0, "Battery"},
	EnumValue{1, "Fridge"},
	EnumValue{2, "Generic"},
)

var EnumFluidType = NewEnumTable("fluid_type",
	EnumValue{0, "Fuel"},
	EnumValue{1, "Fresh water"},
	EnumValue{2, "Waste water"},
	EnumValue{3, "Live well"},
	EnumValue{4, "Oil"},
	EnumValue{5, "Black water"},
	EnumValue{6, "Gasoline"},
	EnumValue{7, "Diesel"},
	EnumValue{8, "LPG"},
	EnumValue{9, "LNG"},
	EnumValue{10, "Hydraulic oil"},
	EnumValue{11, "Raw water"},
)
