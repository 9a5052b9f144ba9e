package health

import "context"

// DBPinger checks cache database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// AnalyzerChecker checks analysis provider availability.
type AnalyzerChecker interface {
	HealthCheck(ctx context.Context) error
}
