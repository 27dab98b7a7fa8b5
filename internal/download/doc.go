// Package download moves a selected candidate from the Soulseek network into
// the local staging directory. It enqueues the transfer in slskd, polls until
// the transfer reaches a terminal state, locates the landed file under the
// slskd download tree, and stages it for verification. Failed transfers fall
// through to the next ranked candidate until the attempt budget runs out.
package download
