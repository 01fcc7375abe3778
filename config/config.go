package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration: built once, passed explicitly.
type Config struct {
	// Origin
	BaseURL string
	Lang    string

	// Crawl window
	TargetDate string // YYYY-MM-DD; empty means yesterday
	Timezone   string

	// Crawl bounds
	MaxPages   int
	MaxRetries int
	TimeoutSec int

	// Politeness
	RatePerSecond float64
	RateBurst     int
	RespectRobots bool

	// Concurrency
	Concurrency int

	// Object store
	StoreRoot string // key prefix inside the bucket
	Domain    string // site partition segment
	Bucket    string
	Region    string
	DryRun    bool // in-memory store, nothing persisted

	// Categories
	CategoriesFile string

	LogLevel string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:       "https://kw.opensooq.com",
		Lang:          "ar",
		Timezone:      "Asia/Kuwait",
		MaxPages:      100,
		MaxRetries:    3,
		TimeoutSec:    30,
		RatePerSecond: 2.0,
		RateBurst:     3,
		RespectRobots: true,
		Concurrency:   5,
		StoreRoot:     "opensooq-data",
		Domain:        "opensooq-kw",
		Bucket:        "",
		Region:        "us-east-1",
		LogLevel:      "info",
	}
}

// LoadFromEnv loads .env (if present) then overrides config from SOUQ_*
// environment variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	if v := os.Getenv("SOUQ_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("SOUQ_LANG"); v != "" {
		c.Lang = v
	}
	if v := os.Getenv("SOUQ_TARGET_DATE"); v != "" {
		c.TargetDate = v
	}
	if v := os.Getenv("SOUQ_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("SOUQ_MAX_PAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxPages = n
		}
	}
	if v := os.Getenv("SOUQ_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("SOUQ_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TimeoutSec = n
		}
	}
	if v := os.Getenv("SOUQ_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv("SOUQ_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateBurst = n
		}
	}
	if v := os.Getenv("SOUQ_RESPECT_ROBOTS"); v == "false" {
		c.RespectRobots = false
	}
	if v := os.Getenv("SOUQ_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency = n
		}
	}
	if v := os.Getenv("SOUQ_STORE_ROOT"); v != "" {
		c.StoreRoot = v
	}
	if v := os.Getenv("SOUQ_DOMAIN"); v != "" {
		c.Domain = v
	}
	if v := os.Getenv("SOUQ_STORE_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Region = v
	}
	if v := os.Getenv("SOUQ_CATEGORIES"); v != "" {
		c.CategoriesFile = v
	}
	if v := os.Getenv("SOUQ_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ResolveTargetDate returns the configured target day, defaulting to
// yesterday in the run's location.
func (c *Config) ResolveTargetDate(now time.Time) (time.Time, error) {
	loc := c.Location()
	if c.TargetDate == "" {
		y, m, d := now.In(loc).AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", c.TargetDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse target date %q: %w", c.TargetDate, err)
	}
	return t, nil
}

// Subcategory is one crawlable leaf of a category family.
type Subcategory struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
}

// Family is one category family to crawl. With Discover set, subcategories
// come from the landing page facets instead of the static list.
type Family struct {
	Name          string        `yaml:"name"`
	Path          string        `yaml:"path"`
	Discover      bool          `yaml:"discover"`
	Subcategories []Subcategory `yaml:"subcategories"`
}

// LoadFamilies reads the category file, or returns the compiled-in set when
// no file is configured.
func LoadFamilies(path string) ([]Family, error) {
	if path == "" {
		return defaultFamilies(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories %s: %w", path, err)
	}
	var doc struct {
		Families []Family `yaml:"families"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse categories %s: %w", path, err)
	}
	if len(doc.Families) == 0 {
		return nil, fmt.Errorf("categories %s: no families defined", path)
	}
	return doc.Families, nil
}

func defaultFamilies() []Family {
	return []Family{
		{
			Name: "properties",
			Subcategories: []Subcategory{
				{Label: "شقق-للايجار", Path: "عقارات/عقارات-للإيجار/شقق-للايجار"},
				{Label: "فلل-وقصور-للايجار", Path: "عقارات/عقارات-للإيجار/فلل-وقصور-للايجار"},
				{Label: "شقق-للبيع", Path: "عقارات/عقارات-للبيع/شقق-للبيع"},
				{Label: "أراضي-للبيع", Path: "عقارات/عقارات-للبيع/أراضي-للبيع"},
			},
		},
		{
			Name:     "services",
			Path:     "خدمات",
			Discover: true,
		},
		{
			Name: "home-garden",
			Subcategories: []Subcategory{
				{Label: "الأثاث", Path: "المنزل-والحديقة/الأثاث"},
				{Label: "ديكور-المنزل", Path: "المنزل-والحديقة/ديكور-المنزل-وإكسسواراته"},
				{Label: "أواني-وأطباق-المطبخ", Path: "المنزل-والحديقة/أواني-وأطباق-المطبخ"},
				{Label: "نباتات", Path: "المنزل-والحديقة/نباتات"},
			},
		},
	}
}
