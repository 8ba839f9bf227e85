// Package retry provides backoff strategies and a bounded retry loop.
//
// The collector uses a BackoffStrategy directly for its unbounded transient
// extraction retries; the browser session uses Do for page navigation:
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return page.Context(ctx).Navigate(url)
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     retry.DefaultExponentialBackoff(),
//		Logger:      log,
//	})
package retry
