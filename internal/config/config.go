package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request budget, must cover clone + LLM calls

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	PublicBaseURL string // where player.js and /api/installs/confirm are reachable (ex: https://demo.domain.ext)
	PlayerOrigin  string // origin serving the player iframe (defaults to PublicBaseURL)

	// Placement
	PlacementStrategy      string        // "content-first" | "header-first"
	PlacementStrategyFile  string        // optional YAML file replacing the embedded strategies
	StrategyReloadInterval time.Duration // how often the strategy file is re-read
	AIPlacementEnabled     bool          // try the LLM advisor before the heuristic

	// LLM
	LLMProvider  string        // "gemini" | "none"
	GeminiAPIKey string        // optional, provider falls back to none when empty
	GeminiModel  string        // ex: "gemini-2.5-flash"
	LLMTimeout   time.Duration // per call, applied when the caller has no deadline

	// Visual clone
	CloneInlineCSS  bool          // ask the LLM to inline critical CSS
	BrowserFallback bool          // render through headless chrome when plain HTTP is refused
	FetchTimeout    time.Duration // plain HTTP fetch budget
	BrowserTimeout  time.Duration // headless render budget
	BrowserURL      string        // optional remote devtools websocket, a local chrome is launched otherwise
	UserAgent       string

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Email relay (SMTP). Empty host disables notifications.
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string
	MailTo       []string

	// Spreadsheet mirror. Empty spreadsheet id disables it.
	SheetsSpreadsheetID   string
	SheetsCredentialsFile string
	SheetsTab             string

	// WordPress plugin pipeline. Empty owner or repo disables plugin builds.
	GitHubToken      string
	GitHubOwner      string
	GitHubRepo       string
	GitHubBaseBranch string
	GitHubWorkflow   string // workflow file name, ex: "build-plugin.yml"

	AllowedCIDRS      []string // optional, restrict admin endpoints to specific IPs/CIDRs
	AllowedHosts      []string // optional, Host headers accepted on admin endpoints (supports *.domain.ext)
	TrustProxy        bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	InstallRateBurst  int      // per-IP burst on the install ping endpoint
	InstallRatePerMin int      // per-IP refill on the install ping endpoint
}

// Load reads the server configuration. Missing required variables panic, like
// any other unrecoverable startup error.
func Load() *Config {
	cfg := defaults()

	cfg.PublicBaseURL = strings.TrimRight(requireEnv("DEMOGEN_PUBLIC_BASE_URL"), "/")
	cfg.PlayerOrigin = strings.TrimRight(getenv("DEMOGEN_PLAYER_ORIGIN", cfg.PublicBaseURL), "/")
	cfg.RedisAddr = requireEnv("DEMOGEN_REDIS_ADDR")
	cfg.RedisDB = requireEnvInt("DEMOGEN_REDIS_DB")

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: DEMOGEN_REDIS_PASSWORD is required when DEMOGEN_REDIS_PASSWORD_REQUIRED=true")
	}

	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// LoadOffline reads the configuration for CLI commands that never touch the
// store or the HTTP surface. Nothing is required.
func LoadOffline() *Config {
	cfg := defaults()
	cfg.PublicBaseURL = strings.TrimRight(getenv("DEMOGEN_PUBLIC_BASE_URL", "http://localhost:8080"), "/")
	cfg.PlayerOrigin = strings.TrimRight(getenv("DEMOGEN_PLAYER_ORIGIN", cfg.PublicBaseURL), "/")
	return cfg
}

func defaults() *Config {
	return &Config{
		// Server settings
		ListenPort:      getenv("DEMOGEN_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("DEMOGEN_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("DEMOGEN_REQUEST_TIMEOUT", 120*time.Second),

		// Logging
		LogLevel:  getenv("DEMOGEN_LOG_LEVEL", "info"),
		PrettyLog: mustBool("DEMOGEN_PRETTY_LOG", true),

		// Placement
		PlacementStrategy:      getenv("DEMOGEN_PLACEMENT_STRATEGY", "content-first"),
		PlacementStrategyFile:  getenv("DEMOGEN_PLACEMENT_STRATEGY_FILE", ""),
		StrategyReloadInterval: mustDuration("DEMOGEN_STRATEGY_RELOAD_INTERVAL", 5*time.Minute),
		AIPlacementEnabled:     mustBool("DEMOGEN_AI_PLACEMENT_ENABLED", false),

		// LLM
		LLMProvider:  getenv("DEMOGEN_LLM_PROVIDER", "gemini"),
		GeminiAPIKey: getenv("DEMOGEN_GEMINI_API_KEY", ""),
		GeminiModel:  getenv("DEMOGEN_GEMINI_MODEL", "gemini-2.5-flash"),
		LLMTimeout:   mustDuration("DEMOGEN_LLM_TIMEOUT", 45*time.Second),

		// Visual clone
		CloneInlineCSS:  mustBool("DEMOGEN_CLONE_INLINE_CSS", false),
		BrowserFallback: mustBool("DEMOGEN_BROWSER_FALLBACK", false),
		FetchTimeout:    mustDuration("DEMOGEN_FETCH_TIMEOUT", 30*time.Second),
		BrowserTimeout:  mustDuration("DEMOGEN_BROWSER_TIMEOUT", 30*time.Second),
		BrowserURL:      getenv("DEMOGEN_BROWSER_URL", ""),
		UserAgent: getenv("DEMOGEN_USER_AGENT",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"),

		// Redis settings
		RedisUser:             getenv("DEMOGEN_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("DEMOGEN_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("DEMOGEN_REDIS_PASSWORD", ""),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Email relay
		SMTPHost:     getenv("DEMOGEN_SMTP_HOST", ""),
		SMTPPort:     getenvInt("DEMOGEN_SMTP_PORT", 587),
		SMTPUser:     getenv("DEMOGEN_SMTP_USERNAME", ""),
		SMTPPassword: getenv("DEMOGEN_SMTP_PASSWORD", ""),
		MailFrom:     getenv("DEMOGEN_MAIL_FROM", "demogen@localhost"),
		MailTo:       splitAndTrim(getenv("DEMOGEN_MAIL_TO", "")),

		// Spreadsheet
		SheetsSpreadsheetID:   getenv("DEMOGEN_SHEETS_SPREADSHEET_ID", ""),
		SheetsCredentialsFile: getenv("DEMOGEN_SHEETS_CREDENTIALS_FILE", ""),
		SheetsTab:             getenv("DEMOGEN_SHEETS_TAB", "Demos"),

		// Plugin pipeline
		GitHubToken:      getenv("DEMOGEN_GITHUB_TOKEN", ""),
		GitHubOwner:      getenv("DEMOGEN_GITHUB_OWNER", ""),
		GitHubRepo:       getenv("DEMOGEN_GITHUB_REPO", ""),
		GitHubBaseBranch: getenv("DEMOGEN_GITHUB_BASE_BRANCH", "main"),
		GitHubWorkflow:   getenv("DEMOGEN_GITHUB_WORKFLOW", "build-plugin.yml"),

		// Access restrictions
		AllowedCIDRS:      parseAllowedIPs(getenv("DEMOGEN_ADMIN_CIDRS", "")),
		AllowedHosts:      splitAndTrim(getenv("DEMOGEN_ADMIN_HOSTS", "")),
		TrustProxy:        mustBool("DEMOGEN_TRUST_PROXY", true),
		InstallRateBurst:  getenvInt("DEMOGEN_INSTALL_RATE_BURST", 10),
		InstallRatePerMin: getenvInt("DEMOGEN_INSTALL_RATE_PER_MIN", 30),
	}
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	for _, s := range []*string{&cp.GeminiAPIKey, &cp.SMTPPassword, &cp.GitHubToken} {
		if *s != "" {
			*s = "***REDACTED***"
		}
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
