package config

import (
	"flag"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pion/webrtc/v3"
	"github.com/samber/lo"
)

type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local dev prod"`
	HTTP        HTTPConfig        `yaml:"http"`
	WebRTC      WebRTCConfig      `yaml:"webrtc"`
	Matchmaking MatchmakingConfig `yaml:"matchmaking"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	Moderation  ModerationConfig  `yaml:"moderation"`
}

type HTTPConfig struct {
	Address        string        `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
}

type WebRTCConfig struct {
	STUNServers []string     `yaml:"stun_servers" env:"WEBRTC_STUN_SERVERS" env-separator:","`
	TURNServers []TURNServer `yaml:"turn_servers" validate:"dive"`
}

type TURNServer struct {
	URLs       []string `yaml:"urls" validate:"required,min=1"`
	Username   string   `yaml:"username"`
	Credential string   `yaml:"credential"`
}

type MatchmakingConfig struct {
	MaxParticipants int           `yaml:"max_participants" env:"MATCH_MAX_PARTICIPANTS" env-default:"10000" validate:"min=0"`
	MaxWaiting      int           `yaml:"max_waiting" env:"MATCH_MAX_WAITING" env-default:"0" validate:"min=0"`
	MaxScan         int           `yaml:"max_scan" env:"MATCH_MAX_SCAN" env-default:"64" validate:"min=0"`
	WaitTimeout     time.Duration `yaml:"wait_timeout" env:"MATCH_WAIT_TIMEOUT" env-default:"0s"`
	SweepInterval   time.Duration `yaml:"sweep_interval" env:"MATCH_SWEEP_INTERVAL" env-default:"5s"`
	SendBuffer      int           `yaml:"send_buffer" env:"MATCH_SEND_BUFFER" env-default:"64" validate:"min=1"`
	BroadcastOnline bool          `yaml:"broadcast_online" env:"MATCH_BROADCAST_ONLINE"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN"`
}

type RedisConfig struct {
	Address         string `yaml:"address" env:"REDIS_ADDRESS"`
	Password        string `yaml:"password" env:"REDIS_PASSWORD"`
	DB              int    `yaml:"db" env:"REDIS_DB" env-default:"0" validate:"min=0"`
	EvictionChannel string `yaml:"eviction_channel" env:"REDIS_EVICTION_CHANNEL" env-default:"moderation:evictions"`
}

type AuthConfig struct {
	JWTSecret       string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	RequireIdentity bool   `yaml:"require_identity" env:"AUTH_REQUIRE_IDENTITY" env-default:"false"`
}

type ModerationConfig struct {
	APIKey string `yaml:"api_key" env:"MODERATION_API_KEY"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := LoadPath(configPath)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// LoadPath reads, defaults and validates the YAML file at configPath.
// Environment variables override file values.
func LoadPath(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &LoadError{Path: configPath, Reason: "config file does not exist"}
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, &LoadError{Path: configPath, Reason: "cannot read config: " + err.Error()}
	}

	cfg.setDefaults()

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, &LoadError{Path: configPath, Reason: "invalid config: " + err.Error()}
	}

	return &cfg, nil
}

type LoadError struct {
	Path   string
	Reason string
}

func (e *LoadError) Error() string {
	return e.Reason + ": " + e.Path
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.WebRTC.STUNServers) == 0 {
		c.WebRTC.STUNServers = []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	if c.Matchmaking.SweepInterval <= 0 {
		c.Matchmaking.SweepInterval = 5 * time.Second
	}
}

// ICEServers converts the configured STUN and TURN addresses into the list
// handed to clients in paired notifications.
func (c WebRTCConfig) ICEServers() []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, 1+len(c.TURNServers))
	if len(c.STUNServers) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: c.STUNServers})
	}
	return append(servers, lo.Map(c.TURNServers, func(turn TURNServer, _ int) webrtc.ICEServer {
		return webrtc.ICEServer{
			URLs:           turn.URLs,
			Username:       turn.Username,
			Credential:     turn.Credential,
			CredentialType: webrtc.ICECredentialTypePassword,
		}
	})...)
}
