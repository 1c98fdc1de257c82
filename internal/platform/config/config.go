package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	// Platform API access.
	GraphBaseURL string
	TokenURL     string
	TenantID     string
	ClientID     string
	ClientSecret string

	// Notification target pieces embedded into subscription specs.
	PublicBaseURL string
	FunctionKey   string
	ClientState   string

	// Sink selection and sink addressing.
	StreamToggle    bool
	EventGatewayURL string

	CallRecordTopic  string
	UserEventTopic   string
	ChatMessageTopic string

	CallRecordContainer  string
	UserEventContainer   string
	ChatMessageContainer string

	ChatAPIEnabled     bool
	ArchiveCompression bool

	LeaseWindow     time.Duration
	RenewalInterval time.Duration
}

// fileConfig is the optional YAML overlay. Only fields present in the
// file override the environment-derived values.
type fileConfig struct {
	ServiceName     *string `yaml:"service_name"`
	HTTPPort        *string `yaml:"http_port"`
	PostgresDSN     *string `yaml:"postgres_dsn"`
	GraphBaseURL    *string `yaml:"graph_base_url"`
	PublicBaseURL   *string `yaml:"public_base_url"`
	EventGatewayURL *string `yaml:"event_gateway_url"`
	StreamToggle    *bool   `yaml:"stream_toggle"`
	ChatAPIEnabled  *bool   `yaml:"chat_api_enabled"`
	LeaseHours      *int    `yaml:"lease_hours"`
	RenewalHours    *int    `yaml:"renewal_hours"`
}

func Load() (Config, error) {
	return LoadWithFile(os.Getenv("CONFIG_FILE"))
}

func LoadWithFile(path string) (Config, error) {
	cfg := Config{
		ServiceName: envOr("SERVICE_NAME", "graphrelay"),
		HTTPPort:    envOr("HTTP_PORT", "8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		GraphBaseURL: envOr("GRAPH_BASE_URL", "https://graph.microsoft.com/v1.0"),
		TenantID:     os.Getenv("TENANT_ID"),
		ClientID:     os.Getenv("CLIENT_ID"),
		ClientSecret: os.Getenv("CLIENT_SECRET"),

		PublicBaseURL: os.Getenv("PUBLIC_BASE_URL"),
		FunctionKey:   os.Getenv("FUNCTION_KEY"),
		ClientState:   os.Getenv("CLIENT_STATE"),

		StreamToggle:    envBool("EVENT_HUB_FEATURE_TOGGLE", false),
		EventGatewayURL: os.Getenv("EVENT_GATEWAY_URL"),

		CallRecordTopic:  envOr("CALLRECORD_TOPIC", "callrecords-topic"),
		UserEventTopic:   envOr("USEREVENT_TOPIC", "userevents-topic"),
		ChatMessageTopic: envOr("CHATMESSAGE_TOPIC", "chatmessages-topic"),

		CallRecordContainer:  envOr("CALLRECORD_CONTAINER", "callrecords-container"),
		UserEventContainer:   envOr("USEREVENT_CONTAINER", "userevents-container"),
		ChatMessageContainer: envOr("CHATMESSAGE_CONTAINER", "chatmessages-container"),

		ChatAPIEnabled:     envBool("CHAT_API_TOGGLE", false),
		ArchiveCompression: envBool("ARCHIVE_COMPRESSION", false),

		LeaseWindow:     envHours("LEASE_HOURS", 48*time.Hour),
		RenewalInterval: envHours("RENEWAL_HOURS", 24*time.Hour),
	}

	cfg.TokenURL = os.Getenv("TOKEN_URL")
	if cfg.TokenURL == "" && cfg.TenantID != "" {
		cfg.TokenURL = fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID)
	}

	if strings.TrimSpace(path) != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	var overlay fileConfig
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if overlay.ServiceName != nil {
		cfg.ServiceName = *overlay.ServiceName
	}
	if overlay.HTTPPort != nil {
		cfg.HTTPPort = *overlay.HTTPPort
	}
	if overlay.PostgresDSN != nil {
		cfg.PostgresDSN = *overlay.PostgresDSN
	}
	if overlay.GraphBaseURL != nil {
		cfg.GraphBaseURL = *overlay.GraphBaseURL
	}
	if overlay.PublicBaseURL != nil {
		cfg.PublicBaseURL = *overlay.PublicBaseURL
	}
	if overlay.EventGatewayURL != nil {
		cfg.EventGatewayURL = *overlay.EventGatewayURL
	}
	if overlay.StreamToggle != nil {
		cfg.StreamToggle = *overlay.StreamToggle
	}
	if overlay.ChatAPIEnabled != nil {
		cfg.ChatAPIEnabled = *overlay.ChatAPIEnabled
	}
	if overlay.LeaseHours != nil {
		cfg.LeaseWindow = time.Duration(*overlay.LeaseHours) * time.Hour
	}
	if overlay.RenewalHours != nil {
		cfg.RenewalInterval = time.Duration(*overlay.RenewalHours) * time.Hour
	}
	return nil
}

func envOr(name string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envHours(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return fallback
	}
	return time.Duration(hours) * time.Hour
}
