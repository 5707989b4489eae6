// Package config handles configuration loading for the voice agent.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation, environment fallbacks, and sensible
// defaults, so the server runs from environment variables alone.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from VOICE_AGENT_CONFIG environment variable
//  2. ~/.config/voice-agent/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	livekit:
//	  api_secret: "${LIVEKIT_API_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Environment Fallbacks
//
// Fields left empty by the file fall back to well-known variables: PORT,
// FRONTEND_URL, DATABASE_PATH, LIVEKIT_API_KEY, LIVEKIT_API_SECRET,
// LIVEKIT_URL, MASTRA_API_URL, MASTRA_API_KEY, MEM0_API_URL, MEM0_API_KEY,
// and LOG_LEVEL. MEM0_DATABASE_URL is accepted as a legacy alias for
// MEM0_API_URL.
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: ":3001"
//	  frontend_url: "http://localhost:5173"  # CORS origin
//
// Database:
//
//	database:
//	  path: "data/voice-agent.db"
//
// LiveKit (required):
//
//	livekit:
//	  api_key: "${LIVEKIT_API_KEY}"
//	  api_secret: "${LIVEKIT_API_SECRET}"
//	  url: "wss://your-project.livekit.cloud"
//
// AI (optional; absent credentials degrade to pattern extraction):
//
//	ai:
//	  mastra_url: "http://localhost:4111"
//	  mastra_api_key: "${MASTRA_API_KEY}"
//	  mem0_api_key: "${MEM0_API_KEY}"
//
// Sessions:
//
//	sessions:
//	  timeout: "30m"
//	  cleanup_interval: "5m"
//
// Rate limiting:
//
//	rate_limit:
//	  requests_per_second: 10
//	  burst: 20
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - LiveKit credentials present (all three fields)
//   - Database path non-empty
//   - Duration format validity
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
