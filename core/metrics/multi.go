package metrics

// MultiSink fans distribution records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDistribution forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordDistribution(res []DistributionResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordDistribution(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordQueueDepth forwards the queue depth when supported by the sink.
func (m *MultiSink) RecordQueueDepth(depth int) error {
	for _, s := range m.Sinks {
		if qr, ok := s.(QueueDepthRecorder); ok {
			if err := qr.RecordQueueDepth(depth); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFlush forwards flush events when supported by the sink.
func (m *MultiSink) RecordFlush(ev FlushEvent) error {
	for _, s := range m.Sinks {
		if fr, ok := s.(FlushRecorder); ok {
			if err := fr.RecordFlush(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
