package staffing

import "time"

// DefaultSolveTimeout bounds the exact assignment solve.
const DefaultSolveTimeout = 10 * time.Second

// Config tunes the staff optimizer.
type Config struct {
	SolveTimeoutSeconds float64 `json:"solve_timeout_seconds" yaml:"solve_timeout_seconds"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.SolveTimeoutSeconds <= 0 {
		c.SolveTimeoutSeconds = DefaultSolveTimeout.Seconds()
	}
}

// SolveTimeout returns the exact solve budget.
func (c Config) SolveTimeout() time.Duration {
	if c.SolveTimeoutSeconds <= 0 {
		return DefaultSolveTimeout
	}
	return time.Duration(c.SolveTimeoutSeconds * float64(time.Second))
}
