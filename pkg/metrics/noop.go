package metrics

// Noop discards all metrics
type Noop struct{}

func (Noop) IncrementCounter(string, map[string]string) {}

func (Noop) AddCounter(string, float64, map[string]string) {}

func (Noop) RecordDuration(string, float64, map[string]string) {}

func (Noop) SetGauge(string, float64, map[string]string) {}
