package cache

import "fmt"

// JobKey holds the JSON snapshot of a terminal job.
func JobKey(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

func RateLimitKey(subject string) string {
	return fmt.Sprintf("ratelimit:%s", subject)
}
