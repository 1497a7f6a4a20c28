package venus

// MetricKind tells consumers how a metric is meant to be used.
// Attribute values are folded into the owning device instead of
// becoming metrics.
type MetricKind string

const (
	KindAttribute    MetricKind = "attribute"
	KindSensor       MetricKind = "sensor"
	KindBinarySensor MetricKind = "binary_sensor"
	KindSwitch       MetricKind = "switch"
	KindSelect       MetricKind = "select"
	KindNumber       MetricKind = "number"
)

// Writable reports whether values of this kind may be pushed back to
// the device.
func (k MetricKind) Writable() bool {
	switch k {
	case KindSwitch, KindSelect, KindNumber:
		return true
	}
	return false
}

// MetricType is the physical quantity a metric carries.
type MetricType string

const (
	TypeNone        MetricType = "none"
	TypePower       MetricType = "power"
	TypeEnergy      MetricType = "energy"
	TypeVoltage     MetricType = "voltage"
	TypeCurrent     MetricType = "current"
	TypeFrequency   MetricType = "frequency"
	TypeTemperature MetricType = "temperature"
	TypePercentage  MetricType = "percentage"
	TypeSpeed       MetricType = "speed"
	TypeLiquid      MetricType = "liquid"
)

// MetricNature distinguishes gauges from ever-growing counters.
type MetricNature string

const (
	NatureNone          MetricNature = "none"
	NatureInstant       MetricNature = "instantaneous"
	NatureCumulative    MetricNature = "cumulative"
	NatureInformational MetricNature = "info"
)

// ValueKind selects the codec used for a descriptor's payloads.
type ValueKind string

const (
	ValueInt     ValueKind = "int"
	ValueIntZero ValueKind = "int_default_0"
	ValueFloat   ValueKind = "float"
	ValueString  ValueKind = "string"
	ValueBool    ValueKind = "bool"
	ValueEnum    ValueKind = "enum"
)

const defaultWriteMarker = "W"

// TopicDescriptor declares one topic pattern the hub understands and
// how to interpret payloads arriving on it. Descriptors are plain data;
// the whole table lives in topics.go.
type TopicDescriptor struct {
	// Topic is the pattern: `/`-separated segments where `+` matches any
	// single segment and `{name}` matches and captures one.
	Topic string

	// ShortID identifies the metric within a device. It may reference
	// placeholders, e.g. "grid_voltage_{phase}".
	ShortID string

	// Name is the human readable name. Placeholders are substituted the
	// same way as in ShortID.
	Name string

	Unit       string
	Kind       MetricKind
	MetricType MetricType
	Nature     MetricNature
	ValueType  ValueKind

	// Precision applies to float values: decimal places kept after
	// rounding half away from zero. Negative means no rounding.
	Precision int

	Enum *EnumTable

	// Min/Max bound outgoing writes for number metrics. Nil means
	// unbounded on that side.
	Min *float64
	Max *float64

	// WriteMarker replaces the leading direction segment when building
	// the outbound topic. Empty means the default "W".
	WriteMarker string
}

func (d *TopicDescriptor) writeMarker() string {
	if d.WriteMarker == "" {
		return defaultWriteMarker
	}
	return d.WriteMarker
}

// Writable reports whether a metric built from this descriptor accepts
// SetValue.
func (d *TopicDescriptor) Writable() bool {
	return d.Kind.Writable()
}

func f64(v float64) *float64 {
	return &v
}
