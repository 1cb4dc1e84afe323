// Load envs from .env
// Load YAML config
// Apply env overrides and defaults
// Validate config

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-jobboard-scraper/internal/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	//Renderer backend: playwright, rod or static
	Renderer string `yaml:"renderer"`
	Headless bool   `yaml:"headless"`
	//Browser cookies JSON file loaded into the playwright context
	CookiesFile string `yaml:"cookies_file"`

	//Run mode
	RunOnce  bool          `yaml:"run_once"`
	Interval time.Duration `yaml:"interval"`

	HotJobs Source `yaml:"hotjobs"`
	GovtJob Source `yaml:"govtjob"`

	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`
	DatabaseURL    string `yaml:"database_url"`

	Log logger.Config `yaml:"log"`
}

// Source holds the per-site knobs of one listing scrape.
type Source struct {
	Enabled      bool          `yaml:"enabled"`
	BaseURL      string        `yaml:"base_url"`
	MaxPages     int           `yaml:"max_pages"`
	EmptyPages   int           `yaml:"empty_pages"`
	WaitTimeout  time.Duration `yaml:"wait_timeout"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
	PageDelay    time.Duration `yaml:"page_delay"`
	CSVFile      string        `yaml:"csv_file"`
	JSONFile     string        `yaml:"json_file"`
	APIURL       string        `yaml:"api_url"`
	APITimeout   time.Duration `yaml:"api_timeout"`
	NextControls []string      `yaml:"next_controls"`
	//Page snapshots (HTML, screenshot) of page 1 and empty pages, off when empty
	DebugDir string `yaml:"debug_dir"`
}

// Default returns the configuration used when no file or env override is present.
func Default() *Config {
	return &Config{
		Renderer: "playwright",
		Headless: true,
		RunOnce:  false,
		Interval: 60 * time.Minute,
		HotJobs: Source{
			Enabled:     true,
			BaseURL:     "https://bdjobs.com/",
			MaxPages:    1,
			EmptyPages:  3,
			WaitTimeout: 10 * time.Second,
			SettleDelay: 5 * time.Second,
			PageDelay:   3 * time.Second,
			CSVFile:     "bdjobs_hot_jobs.csv",
			APIURL:      "https://abdullah007ie.pythonanywhere.com/n8n/send-data/",
			APITimeout:  30 * time.Second,
		},
		GovtJob: Source{
			Enabled:     true,
			BaseURL:     "https://bdgovtjob.net/category/government-jobs-circular/",
			MaxPages:    20,
			EmptyPages:  3,
			WaitTimeout: 15 * time.Second,
			SettleDelay: 3 * time.Second,
			PageDelay:   2 * time.Second,
			CSVFile:     "bdgovtjob_data.csv",
			JSONFile:    "bdgovtjob_data.json",
			APIURL:      "https://abdullah007ie.pythonanywhere.com/bdgovjob/send-data/",
			APITimeout:  60 * time.Second,
		},
		Log: logger.Config{Level: "info", Format: "console"},
	}
}

// Load reads .env, the YAML file at path (missing file is not an error),
// then applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		//defaults + env only
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("RENDERER"); v != "" {
		c.Renderer = v
	}
	if v := os.Getenv("RUN_ONCE"); v != "" {
		c.RunOnce = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("SCRAPE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SCRAPE_INTERVAL: %w", err)
		}
		c.Interval = d
	}
	if v := os.Getenv("MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_PAGES: %w", err)
		}
		c.GovtJob.MaxPages = n
	}
	if v := os.Getenv("API_URL"); v != "" {
		c.GovtJob.APIURL = v
	}
	if v := os.Getenv("HOT_JOBS_API_URL"); v != "" {
		c.HotJobs.APIURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.TelegramToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Renderer {
	case "playwright", "rod", "static":
	default:
		return fmt.Errorf("unknown renderer %q", c.Renderer)
	}
	if !c.RunOnce && c.Interval <= 0 {
		return errors.New("interval must be positive in scheduled mode")
	}
	for name, src := range map[string]Source{"hotjobs": c.HotJobs, "govtjob": c.GovtJob} {
		if !src.Enabled {
			continue
		}
		if src.BaseURL == "" {
			return fmt.Errorf("%s: base_url is required", name)
		}
		if src.MaxPages < 1 {
			return fmt.Errorf("%s: max_pages must be at least 1", name)
		}
		if src.EmptyPages < 1 {
			return fmt.Errorf("%s: empty_pages must be at least 1", name)
		}
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		return errors.New("telegram_token and telegram_chat_id must be set together")
	}
	return nil
}
