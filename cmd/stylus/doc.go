// Command stylus is the CLI for the stylus music acquisition daemon. It
// enqueues track requests, drives one-shot acquisitions, manages the daemon
// process, and inspects the queue over the daemon's IPC socket with a direct
// database fallback when the daemon is not running.
package main
