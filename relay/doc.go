// Package relay is the real-time shared-state server: it keeps the connected
// clients of the single global session in sync, tracks presence, throttles
// chatty connections and persists every mutation before fanning it out.
package relay
