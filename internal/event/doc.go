// Package event carries store change notifications to live queries.
//
// Subscribers registered with Subscribe or SubscribeAll are called
// synchronously from Publish, in the publishing goroutine, so they must not
// block. Every change is also mirrored onto a watermill gochannel topic that
// Stream exposes for slower consumers such as change logging.
package event
