// Package telegram runs the chat front-end for track requests.
//
// The bot long-polls the Bot API, turns free-text "Artist - Title" messages
// into queue requests, and answers lifecycle commands. When automatic
// candidate selection is disabled it watches the queue for items parked in
// found, presents the ranked candidates as inline buttons, and commits the
// requester's pick so the download lane can claim the item. Terminal
// transitions are pushed back to the originating chat.
//
// The bot shares the daemon's queue store and runs inside the daemon
// process; it never drives stages itself.
package telegram
