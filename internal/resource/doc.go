// Package resource bounds what a search stream may hold at once.
//
//   - Memory: a weighted semaphore over the bytes of in-flight batch arenas
//   - IO: a token bucket for reading fingerprint files from remote stores
//   - Progress: throttled progress callbacks for long streams
//
// # Memory Management
//
// WaitMemory blocks until the budget allows the request or ctx is done. A
// request larger than the whole limit fails immediately with
// ErrMemoryLimitExceeded.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	})
//	if err := rc.WaitMemory(ctx, batchBytes); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(batchBytes)
//
// # IO Rate Limiting
//
//	reader := resource.NewRateLimitedReader(ctx, blob, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
