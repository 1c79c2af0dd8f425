// Package http is the network front door. The operations of api/openapi.yaml
// (session allocation, the realtime WebSocket upgrade, health and info) are
// served through the generated chi ServerInterface; the static control page,
// metrics and the raw spec are mounted beside them.
package http
