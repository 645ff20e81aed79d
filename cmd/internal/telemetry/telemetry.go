package telemetry

import "go.uber.org/zap"

// Sink collects fire and forget telemetry properties. Emission is handled
// elsewhere; the orchestration only records flags.
type Sink interface {
	AddDefaultProperty(name string, value string)
}

// LogSink records telemetry properties in the debug log. It stands in for a
// real telemetry pipeline, which is outside the scope of this tool.
type LogSink struct {
}

func (s LogSink) AddDefaultProperty(name string, value string) {
	zap.L().Debug("Telemetry property " + name + "=" + value)
}
