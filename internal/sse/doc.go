// Package sse implements a server-sent events client for [livesync.Transport].
//
// # Wire format
//
// A [Decoder] reads the text/event-stream format: frames are groups of "field: value" lines
// separated by a blank line. The event, data, id and retry fields are understood, lines
// starting with ":" are comments, and LF, CR or CRLF may terminate a line. Frames without a
// data field are never dispatched.
//
// # Reconnection
//
// A [Stream] reconnects after the connection ends or fails, waiting the server-provided retry
// interval (or [ClientOpts.Retry]) doubled for every consecutive failed attempt and capped at
// [ClientOpts.MaxBackoff]. The Last-Event-ID header carries the last id seen. A 204 response,
// any other non-200 status, or a content type other than text/event-stream stops the stream
// for good; [Stream.Err] reports why.
//
// # Status Reporting
//
// [StatusUpdate] values are sent on [ClientOpts.Status] with select/default, so a slow reader
// misses updates instead of stalling the stream.
package sse
