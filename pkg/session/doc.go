/*
Package session implements the BeatPilot session actor and its persistence orchestration.

A Manager owns one mutual-exclusion boundary per session identity and a registry of
active agents. An Agent is the single logical actor of a session: its state is read
from the store once at activation, mutated only by its own operations, and written
back as one blob after every mutation. Operations on the same session never run
concurrently, across channels or (with a DistributedLocker) across replicas.
*/
package session
