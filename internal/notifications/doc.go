// Package notifications publishes acquisition milestones to the user's phone.
//
// Stages and the queue manager emit events (match found, download complete,
// track organized, review needed, errors) through the Service interface. The
// default implementation posts to an ntfy topic from config.toml, collapses
// repeated messages inside the dedup window, and degrades to a no-op when no
// topic is configured. Events the user has toggled off in configuration are
// dropped here, so workflow code never checks notification settings itself.
package notifications
