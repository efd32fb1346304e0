// Package shared holds helpers used across TrackHigh packages that belong to
// no single layer.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler with log assertions
//   - record and feed CSV fixtures
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    // exercise code with logger
//	    testutil.AssertLogContains(t, logs, slog.LevelWarn, "unparsable date")
//	}
package shared
