// Package protocol maps realtime channel messages to session agent operations.
//
// Every inbound message yields exactly one outbound message. Malformed input,
// unknown kinds, invalid selections and persistence failures become "error"
// messages and never terminate the channel.
package protocol
