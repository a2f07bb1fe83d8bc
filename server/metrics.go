package server

import "time"

// unknownCommand labels requests that name no known command
const unknownCommand = "unknown"

// MetricsCollector receives command and connection events. Implementations
// must be safe for concurrent use.
type MetricsCollector interface {
	// RecordCommand is called once per executed command, including commands
	// issued by scripts. name is the lower-case command name.
	RecordCommand(name string, duration time.Duration, failed bool)

	// RecordConnection is called with true when a client connects and false
	// when it disconnects
	RecordConnection(open bool)
}

type nopMetrics struct{}

func (nopMetrics) RecordCommand(string, time.Duration, bool) {}
func (nopMetrics) RecordConnection(bool)                     {}
