// Package expiry runs the background scan that expires purchased instances
// whose validity window has passed.
//
// The scanner periodically asks the index for active records past their end
// date and fires the expiry transition on each owning entity. The entity
// remains the single authority over its own lifecycle: the scanner only
// proposes the transition, and an instance that was cancelled or extended in
// the meantime simply rejects or ignores it on its own turn.
//
// # Usage
//
//	scanner, err := expiry.NewScanner(svc,
//		expiry.WithInterval(time.Minute),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := scanner.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer scanner.Stop()
//
// Scan failures on individual instances are logged and skipped; the next
// tick retries them, so a transient storage failure never wedges the loop.
package expiry
