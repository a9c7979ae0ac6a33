package ratelimiter

import "time"

// Limiter decides whether one more request from key fits in the current
// window. When it does not, the returned duration is how long to wait.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}
