/*
Package beatpilot is a realtime DJ assistant. A client describes the current
vibe over a WebSocket session; BeatPilot asks a language model for three
next-track suggestions and a transition plan, repairs whatever the model
returns into that exact shape, and keeps a persisted per-session history of
accepted tracks.

# Architecture

The core lives under pkg/ and is independent of transport and storage:

  - pkg/repair turns unreliable model text into a SuggestionResult. It never fails.
  - pkg/suggest renders the prompt, calls a ports.Inferencer and repairs the answer.
  - pkg/session owns one actor per session, serialized by a per-session lock
    (optionally a Redis lock across replicas), and persists after every mutation.
  - pkg/summary derives track counts and the average BPM from history.
  - pkg/protocol maps inbound realtime messages to agent operations, one reply each.

Adapters plug into the ports: memory, file and Redis stores (with optional
AES-GCM encryption), Workers AI, Gemini and mock inference, and two front
doors, HTTP/WebSocket and MCP.

# Usage

	beatpilot serve --config beatpilot.yaml
	beatpilot session ls
	echo '{"suggestions": ["a","b","c",], "transition_plan": "x"}' | beatpilot repair
*/
package beatpilot
