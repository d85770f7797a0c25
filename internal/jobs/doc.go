// Package jobs defines the job record, its lifecycle state machine, and the
// concurrency-safe stores that hold records while a fetch is in flight.
//
// Every mutation flows through Store.Update, which applies the state machine
// centrally: terminal records are frozen, status never moves backward,
// progress is clamped to [0,100], and result/error fields only survive on the
// matching terminal status. Readers always receive snapshot copies.
//
// Two backends are provided. MemoryStore is the default; SQLiteStore keeps the
// same semantics on top of modernc.org/sqlite and is wiped on open because jobs
// never outlive the daemon process.
package jobs
