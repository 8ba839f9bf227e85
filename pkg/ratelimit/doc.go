// Package ratelimit throttles job submissions and browser launches.
//
// Two Limiter implementations are provided:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Used by the job manager to reject bursts of submissions
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - Used by the worker pool to pace how often a new browser is started
//
// Usage:
//
//	// 6 jobs per minute, at most 2 at once
//	submissions := ratelimit.NewJobBucket(6, 2)
//	if !submissions.Allow() {
//	    // reply 429
//	}
//
//	launches := ratelimit.NewSlidingWindow(6, time.Minute)
//	launches.Wait()
package ratelimit
