package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/fn-news-bridge/internal/modules/news/domain"
	"github.com/reshetovitsme/fn-news-bridge/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// EnvPrefix marks environment variables that override file values.
const EnvPrefix = "FNNB_"

type Config struct {
	BattleRoyale bool   `koanf:"battleRoyale"`
	Creative     bool   `koanf:"creative"`
	Language     string `koanf:"language"`

	FortniteAPI FortniteAPIConfig `koanf:"fortniteAPI"`
	Twitter     TwitterConfig     `koanf:"twitter"`
	Telegram    TelegramConfig    `koanf:"telegram"`
	Image       ImageConfig       `koanf:"image"`

	Hashtags          []string `koanf:"hashtags"`
	IgnoredTitles     []string `koanf:"ignoredTitles"`
	IgnoredBodies     []string `koanf:"ignoredBodies"`
	StopOnIgnoredBody bool     `koanf:"stopOnIgnoredBody"`

	DataDir        string `koanf:"dataDir"`
	HTTPPort       string `koanf:"httpPort"`
	UpdateInterval int    `koanf:"updateInterval"`
	PostsPerMinute int    `koanf:"postsPerMinute"`
	LogLevel       string `koanf:"logLevel"`
}

type FortniteAPIConfig struct {
	APIKey string `koanf:"apiKey"`
	URL    string `koanf:"url"`
}

type TwitterConfig struct {
	Enabled      bool   `koanf:"enabled"`
	APIKey       string `koanf:"apiKey"`
	APISecret    string `koanf:"apiSecret"`
	AccessToken  string `koanf:"accessToken"`
	AccessSecret string `koanf:"accessSecret"`
}

type TelegramConfig struct {
	Enabled      bool    `koanf:"enabled"`
	BotToken     string  `koanf:"botToken"`
	ChatID       string  `koanf:"chatId"`
	AllowedUsers []int64 `koanf:"allowedUsers"`
}

type ImageConfig struct {
	Enabled     bool   `koanf:"enabled"`
	AssetDir    string `koanf:"assetDir"`
	Background  string `koanf:"background"`
	Logo        string `koanf:"logo"`
	Output      string `koanf:"output"`
	LogoOffsetY int    `koanf:"logoOffsetY"`
}

// FileNames are the configuration files looked up, first match wins.
var FileNames = []string{
	"configuration.json",
	"configuration.yaml",
	"configuration.yml",
	"configuration.toml",
}

// knownKeys lists every key an environment variable may set.
var knownKeys = []string{
	"battleRoyale", "creative", "language",
	"fortniteAPI.apiKey", "fortniteAPI.url",
	"twitter.enabled", "twitter.apiKey", "twitter.apiSecret", "twitter.accessToken", "twitter.accessSecret",
	"telegram.enabled", "telegram.botToken", "telegram.chatId", "telegram.allowedUsers",
	"image.enabled", "image.assetDir", "image.background", "image.logo", "image.output", "image.logoOffsetY",
	"hashtags", "ignoredTitles", "ignoredBodies", "stopOnIgnoredBody",
	"dataDir", "httpPort", "updateInterval", "postsPerMinute", "logLevel",
}

var listKeys = []string{"hashtags", "ignoredTitles", "ignoredBodies", "telegram.allowedUsers"}

var defaults = map[string]any{
	"fortniteAPI.url":   "https://fortnite-api.com/v2/news",
	"dataDir":           "./data",
	"httpPort":          "8080",
	"updateInterval":    300,
	"postsPerMinute":    30,
	"logLevel":          "info",
	"image.assetDir":    "./assets",
	"image.background":  "background.png",
	"image.logo":        "logo.png",
	"image.output":      "./data/composed.jpg",
	"image.logoOffsetY": 620,
}

// Load reads the first configuration file found in dir, applies FNNB_
// environment overrides and defaults, and validates required keys.
func Load(dir string) (*Config, error) {
	k := koanf.New(".")

	configFile, found := lo.Find(FileNames, func(name string) bool {
		_, err := os.Stat(filepath.Join(dir, name))
		return err == nil
	})

	if found {
		path := filepath.Join(dir, configFile)

		var parser koanf.Parser
		switch ext := filepath.Ext(configFile); ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, oops.In("config").With("config_file", path).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, oops.In("config").With("context", "loading environment variables").Wrap(err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			_ = k.Set(key, value)
		}
	}

	// Comma separated strings from the environment become lists
	for _, key := range listKeys {
		if s, ok := k.Get(key).(string); ok {
			_ = k.Set(key, SplitList(s))
		}
	}

	if err := validate(k); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.In("config").With("context", "unmarshaling config").Wrap(err)
	}

	if !filepath.IsAbs(cfg.Image.Background) {
		cfg.Image.Background = filepath.Join(cfg.Image.AssetDir, cfg.Image.Background)
	}
	if !filepath.IsAbs(cfg.Image.Logo) {
		cfg.Image.Logo = filepath.Join(cfg.Image.AssetDir, cfg.Image.Logo)
	}

	return &cfg, nil
}

func validate(k *koanf.Koanf) error {
	required := []string{"battleRoyale", "creative", "language", "fortniteAPI.apiKey"}
	if k.Bool("twitter.enabled") {
		required = append(required, "twitter.apiKey", "twitter.apiSecret", "twitter.accessToken", "twitter.accessSecret")
	}
	if k.Bool("telegram.enabled") {
		required = append(required, "telegram.botToken", "telegram.chatId")
	}

	missing := lo.Filter(required, func(key string, _ int) bool {
		if !k.Exists(key) {
			return true
		}
		if s, ok := k.Get(key).(string); ok {
			return strings.TrimSpace(s) == ""
		}
		return false
	})
	if len(missing) > 0 {
		return oops.In("config").With("keys", missing).Wrapf(errors.ErrMissingConfigKey, "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// envKey maps FNNB_TWITTER__APIKEY onto twitter.apiKey. Unknown variables
// are dropped.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")

	canonical, ok := lo.Find(knownKeys, func(known string) bool {
		return strings.ToLower(known) == key
	})
	if !ok {
		return ""
	}
	return canonical
}

// SplitList parses a comma separated string into trimmed, non-empty parts.
func SplitList(s string) []string {
	return lo.FilterMap(strings.Split(s, ","), func(part string, _ int) (string, bool) {
		part = strings.TrimSpace(part)
		return part, part != ""
	})
}

// EnabledModes returns the feed modes switched on, in a stable order.
func (c *Config) EnabledModes() []domain.Mode {
	flags := map[domain.Mode]bool{
		domain.ModeBattleRoyale: c.BattleRoyale,
		domain.ModeCreative:     c.Creative,
	}
	return lo.FilterMap(domain.ModeNames(), func(name string, _ int) (domain.Mode, bool) {
		mode := domain.Mode(name)
		return mode, flags[mode]
	})
}

// IsUserAllowed checks whether a Telegram user may use the bot commands.
// An empty allow list permits everyone.
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.Telegram.AllowedUsers) == 0 {
		return true
	}
	return lo.Contains(c.Telegram.AllowedUsers, userID)
}

func (c *Config) String() string {
	return fmt.Sprintf("modes=%v language=%s twitter=%t telegram=%t image=%t", c.EnabledModes(), c.Language, c.Twitter.Enabled, c.Telegram.Enabled, c.Image.Enabled)
}
