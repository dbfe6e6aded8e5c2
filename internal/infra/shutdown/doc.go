// Package shutdown coordinates process termination for the qipc binaries.
//
// WithSignals derives a context cancelled on SIGINT or SIGTERM. A Handler
// runs registered cleanup callbacks in reverse order under a deadline, so
// listeners close before the journal is flushed.
//
//	ctx, cancel := shutdown.WithSignals(context.Background())
//	defer cancel()
//	<-ctx.Done()
package shutdown
