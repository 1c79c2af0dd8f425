/*
Package ports defines the driven ports (interfaces) for the BeatPilot session agent.

These interfaces decouple the session core from external collaborators, allowing
the agent to work with various storage backends, model providers, and routing layers.

# Key Interfaces

  - StateStore: Persists the session record as one opaque blob per session identity.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - Inferencer: The generative-model call (text in, best-effort text out, or failure).
  - SessionAllocator: Issues session identities and resolves them to realtime endpoints.
*/
package ports
