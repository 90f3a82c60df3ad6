package export

import "time"

// Recorder receives pipeline measurements.  The prometheus PipelineMetrics
// type implements it.
type Recorder interface {
	RecordsFetched(n int)
	ExtractRows(extract string, n int)
	SinkWrite(sink, extract string, err error, d time.Duration)
	Warning(kind string)
	RunCompleted(status string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordsFetched(int)                             {}
func (nopRecorder) ExtractRows(string, int)                        {}
func (nopRecorder) SinkWrite(string, string, error, time.Duration) {}
func (nopRecorder) Warning(string)                                 {}
func (nopRecorder) RunCompleted(string, time.Duration)             {}

//Personal.AI order the ending
