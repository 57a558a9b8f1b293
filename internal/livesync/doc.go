// Package livesync keeps a rendered collection view in step with a server-pushed event stream.
//
// # Subscription
//
// A [Manager] reads the version marker from the page location (its fragment), derives the
// stream endpoint with [Endpoint] and opens it through an injected [Transport]. Exactly two
// listeners are registered, [KindBoxes] and [KindCaught], before the transport is asked to
// connect. Without a marker the manager does nothing and the view stays static.
//
// Reconnection and backoff belong to the transport (see package sse).
//
// # Applying updates
//
// The [Applicator] decodes payloads and mutates a [View] by position:
//
//	boxes:  [["caught"],["wrong|pidgey","missing"]]
//	caught: 3|12|51
//
// Box i and slot j of the payload map to the i-th container and its j-th slot. Each slot gets
// its status replaced and its annotation either set or cleared, so no annotation from an earlier
// update survives. The readout for a game gets the text "(12 / 51)".
//
// # Ordering
//
// Every received frame becomes one task on a [Dispatcher]. The default [Queue] runs tasks on a
// single goroutine in arrival order, so the view has exactly one writer and two updates to the
// same slot apply in the order the server sent them.
//
// # Errors
//
// Malformed payloads and missing targets are logged and dropped; they never stop the stream.
// The server and the view are expected to agree on structure.
package livesync
