package infra

import "time"

// LinearBackoff returns base * retryCount: the n-th retry after a rate-limit
// response waits n units. Non-positive counts wait nothing.
func LinearBackoff(base time.Duration, retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	return base * time.Duration(retryCount)
}
