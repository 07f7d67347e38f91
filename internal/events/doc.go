// Package events provides an in-process publish/subscribe topic.
//
// Publishers emit events without knowing who consumes them; subscribers
// register a handler for a topic name. The speech synthesizer publishes its
// completion events here and a subscription forwards them to the task
// runner.
//
// The primary components are:
// - Event: a typed JSON payload addressed to a topic
// - EventHandler: interface for subscribers
// - EventEmitter: interface for publishers
package events
