package interfaces

// ProgressSink receives human-readable progress lines from pipeline
// components. Components must not depend on a concrete logging backend; the
// orchestrator injects a sink that appends to the run log.
type ProgressSink interface {
	Append(line string)
}

// ProgressFunc adapts a function to the ProgressSink interface.
type ProgressFunc func(line string)

// Append calls f(line). A nil func is a no-op sink.
func (f ProgressFunc) Append(line string) {
	if f != nil {
		f(line)
	}
}
