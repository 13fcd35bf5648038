// Package asyncapi exposes AsyncAPI 2.x and 3.x documents as mock operations.
//
// Each channel action becomes one operation addressed by the channel path:
// messages the application sends (2.x subscribe, 3.x send) are served on GET
// so WebSocket and SSE clients receive them, and messages the application
// receives (2.x publish, 3.x receive) are accepted on POST and validated
// against the message payload schema.
package asyncapi
