// ABOUTME: Entry point for the voice-agent relay server
// ABOUTME: Provides serve, init, and health subcommands

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/DealExMachina/voice-agent-mastra-demo/internal/config"
	"github.com/DealExMachina/voice-agent-mastra-demo/internal/gateway"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
             _                                       _
 __   _____ (_) ___ ___        __ _  __ _  ___ _ __ | |_
 \ \ / / _ \| |/ __/ _ \_____ / _' |/ _' |/ _ \ '_ \| __|
  \ V / (_) | | (_|  __/_____| (_| | (_| |  __/ | | | |_
   \_/ \___/|_|\___\___|      \__,_|\__, |\___|_| |_|\__|
                                    |___/
`

// getConfigPath returns the path to the config file.
// Priority: VOICE_AGENT_CONFIG env var > XDG_CONFIG_HOME/voice-agent/config.yaml
// > ~/.config/voice-agent/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("VOICE_AGENT_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "voice-agent", "config.yaml")
}

// getDataPath returns the path to the data directory.
// Priority: XDG_DATA_HOME/voice-agent > ~/.local/share/voice-agent
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "voice-agent")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: voice-agent <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the voice agent server")
		fmt.Println("  init     Create a new config file interactively")
		fmt.Println("  health   Check server health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database: %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("LiveKit:  ")
	cyan.Print(cfg.LiveKit.URL)
	fmt.Println()

	green.Print("    ▶ ")
	fmt.Printf("Mastra:   ")
	if cfg.AI.MastraAPIKey != "" {
		cyan.Print(cfg.AI.MastraURL)
	} else {
		yellow.Print("not configured (pattern extraction only)")
	}
	fmt.Println()

	fmt.Println()

	logger.Info("starting voice-agent",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"database", cfg.Database.Path,
	)

	// Create and run gateway
	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr := cfg.Server.HTTPAddr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}

	url := fmt.Sprintf("http://%s/health", addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("voice-agent configuration setup")
	fmt.Println("===============================")
	fmt.Println()

	// Default paths
	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "voice-agent.db")

	// Output filename
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", ":3001")
	frontendURL := prompt(reader, "Frontend URL (CORS origin, empty to disable)", "")

	// Database
	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDbPath)

	// LiveKit
	fmt.Println("\n--- LiveKit Configuration ---")
	lkURL := prompt(reader, "LiveKit server URL", "wss://your-project.livekit.cloud")
	lkKey := prompt(reader, "LiveKit API key (empty to use ${LIVEKIT_API_KEY})", "")
	lkSecret := prompt(reader, "LiveKit API secret (empty to use ${LIVEKIT_API_SECRET})", "")

	// AI
	fmt.Println("\n--- AI Configuration ---")
	mastraURL := prompt(reader, "Mastra API URL (empty to disable)", "")
	var mastraKey string
	if mastraURL != "" {
		mastraKey = prompt(reader, "Mastra API key (empty to use ${MASTRA_API_KEY})", "")
	}

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# voice-agent configuration\n")
	cfg.WriteString("# Generated by voice-agent init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	if frontendURL != "" {
		cfg.WriteString(fmt.Sprintf("  frontend_url: \"%s\"\n", frontendURL))
	}
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("livekit:\n")
	cfg.WriteString(fmt.Sprintf("  url: \"%s\"\n", lkURL))
	if lkKey != "" {
		cfg.WriteString(fmt.Sprintf("  api_key: \"%s\"\n", lkKey))
	} else {
		cfg.WriteString("  api_key: \"${LIVEKIT_API_KEY}\"\n")
	}
	if lkSecret != "" {
		cfg.WriteString(fmt.Sprintf("  api_secret: \"%s\"\n", lkSecret))
	} else {
		cfg.WriteString("  api_secret: \"${LIVEKIT_API_SECRET}\"\n")
	}
	cfg.WriteString("\n")

	if mastraURL != "" {
		cfg.WriteString("ai:\n")
		cfg.WriteString(fmt.Sprintf("  mastra_url: \"%s\"\n", mastraURL))
		if mastraKey != "" {
			cfg.WriteString(fmt.Sprintf("  mastra_api_key: \"%s\"\n", mastraKey))
		} else {
			cfg.WriteString("  mastra_api_key: \"${MASTRA_API_KEY}\"\n")
		}
		cfg.WriteString("\n")
	}

	cfg.WriteString("sessions:\n")
	cfg.WriteString("  timeout: \"30m\"\n")
	cfg.WriteString("  cleanup_interval: \"5m\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("rate_limit:\n")
	cfg.WriteString("  requests_per_second: 10\n")
	cfg.WriteString("  burst: 20\n")
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Ensure data directory exists
	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  voice-agent serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
