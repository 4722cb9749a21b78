package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	cacheFile   = "file"
	cacheSQLite = "sqlite"
	cacheMemory = "memory"
)

type config struct {
	Source   string `env:"POSTS_SOURCE_URL" envDefault:"https://jsonplaceholder.typicode.com/posts"`
	Limit    int    `env:"POSTS_LIMIT" envDefault:"10"`
	Cache    string `env:"POSTS_CACHE" envDefault:"file"`
	CacheDir string `env:"POSTS_CACHE_DIR"`
	Key      string `env:"POSTS_CACHE_KEY" envDefault:"posts"`
	Verbose  bool   `env:"POSTS_VERBOSE"`
}

// loadConfig reads an optional .env file and then the environment.
func loadConfig(dotenv ...string) (config, error) {
	if err := godotenv.Load(dotenv...); err != nil && !os.IsNotExist(err) {
		return config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}

	return cfg, nil
}

func (c config) validate() error {
	if c.Limit < 1 {
		return fmt.Errorf("limit must be at least 1, got %d", c.Limit)
	}

	if c.Key == "" {
		return fmt.Errorf("cache key is required")
	}

	switch c.Cache {
	case cacheFile, cacheSQLite, cacheMemory:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache)
	}

	return nil
}

func (c config) cacheDir() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}

	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate user cache dir: %w", err)
	}

	return filepath.Join(dir, "posts"), nil
}

// openCache returns the configured slot and a close func for it.
func (c config) openCache(ctx context.Context) (cache, func() error, error) {
	noop := func() error { return nil }

	if c.Cache == cacheMemory {
		return newMemoryCache(c.Key), noop, nil
	}

	dir, err := c.cacheDir()
	if err != nil {
		return nil, nil, err
	}

	if c.Cache == cacheSQLite {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create cache dir: %w", err)
		}

		sc, err := openSQLiteCache(ctx, filepath.Join(dir, "posts.db"), c.Key)
		if err != nil {
			return nil, nil, err
		}

		return sc, sc.Close, nil
	}

	fc, err := newFileCache(dir, c.Key)
	if err != nil {
		return nil, nil, err
	}

	return fc, noop, nil
}

func (c config) logger(w io.Writer) *log.Logger {
	if !c.Verbose {
		w = io.Discard
	}

	return log.New(w, "posts: ", log.LstdFlags)
}
