// Command mediafetch runs the download daemon and talks to it.
//
// "mediafetch serve" starts the daemon. The other commands are HTTP clients
// of a running daemon: submit queues a download (and with --wait follows it
// and saves the result), watch follows progress, fetch saves a finished
// artifact, jobs lists jobs, cancel stops one, and status reports daemon
// health. doctor and config run locally without a daemon.
package main
