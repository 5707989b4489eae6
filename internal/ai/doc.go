// Package ai selects between a hosted Mastra agent and local pattern
// matching for message analysis and agent replies.
//
// The Backend interface has exactly two implementations, chosen once at
// construction time from configuration: Configured (Mastra HTTP client) or
// Unavailable (pattern matcher from internal/extract). Extraction always
// succeeds — the Mastra backend falls back to pattern matching on upstream
// failure — while replies require a configured agent.
package ai
