package respkit

import "time"

// loggerAdapter adapts our Logger interface to server.Logger
type loggerAdapter struct {
	logger Logger
}

func (la *loggerAdapter) Debug(msg string, fields ...interface{}) {
	la.logger.Debug(msg, convertFields(fields...)...)
}

func (la *loggerAdapter) Info(msg string, fields ...interface{}) {
	la.logger.Info(msg, convertFields(fields...)...)
}

func (la *loggerAdapter) Error(msg string, fields ...interface{}) {
	la.logger.Error(msg, convertFields(fields...)...)
}

// convertFields turns alternating key/value pairs into fields. Pairs with a
// non-string key and a trailing key without value are dropped.
func convertFields(fields ...interface{}) []Field {
	result := make([]Field, 0, len(fields)/2)
	for i := 0; i < len(fields)-1; i += 2 {
		if key, ok := fields[i].(string); ok {
			result = append(result, Field{
				Key:   key,
				Value: fields[i+1],
			})
		}
	}
	return result
}

// metricsAdapter adapts our MetricsCollector to server.MetricsCollector
type metricsAdapter struct {
	metrics MetricsCollector
}

func (ma *metricsAdapter) RecordCommand(name string, duration time.Duration, failed bool) {
	ma.metrics.RecordCommandProcessed(name, duration)
	if failed {
		ma.metrics.RecordError(name)
	}
}

func (ma *metricsAdapter) RecordConnection(open bool) {
	ma.metrics.RecordConnection(open)
}
