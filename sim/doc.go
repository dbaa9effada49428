// Package sim provides the synchronization engine for the barbershop simulator.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - client.go: Client lifecycle (arrived → queued → seated → in service → served → done)
//   - shop.go: the shared Shop state and the admission protocol every client runs
//   - simulator.go: the driver that spawns servers and clients and waits for the run to drain
//
// # Architecture
//
// A Shop owns all shared state. The seat registry, the overflow queue and the
// occupancy count live behind one mutex; a sync.Cond on that mutex wakes queued
// clients whenever a seat is vacated. The completion counter has its own mutex.
// The capacity pool and the client-ready signal are counting semaphores
// (golang.org/x/sync/semaphore). The pool is only changed under the shop
// lock; the ready signal is posted and waited on outside it.
//
// Each client waits on its own one-shot completion signal, fulfilled by the
// server that served it. Servers are daemon goroutines bound to the run
// context; the Simulator cancels that context once every client is done.
//
// Sub-packages:
//   - sim/trace/: event summaries and post-run invariant checks
//   - sim/telemetry/: Prometheus collector sink
//
// # Key Interfaces
//
//   - Sink: receives timestamped domain events (arrival, queueing, promotion, service, completion)
//   - Observer: receives a Snapshot of the shop state after every mutation, under the shop lock
package sim
