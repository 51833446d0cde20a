package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envOnce sync.Once

func ensureEnvLoaded() {
	envOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("warning: failed to load .env file: %v", err)
		}
	})
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func u64env(k string, def uint64) uint64 {
	if v := os.Getenv(k); v != "" {
		var x uint64
		_, _ = fmt.Sscan(v, &x)
		if x > 0 {
			return x
		}
	}
	return def
}

func durationEnvSeconds(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
		var secs int
		if _, err := fmt.Sscan(v, &secs); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}

func intEnv(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		var x int
		if _, err := fmt.Sscan(v, &x); err == nil && x > 0 {
			return x
		}
	}
	return def
}

func nonNegIntEnv(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		var x int
		if _, err := fmt.Sscan(v, &x); err == nil && x >= 0 {
			return x
		}
	}
	return def
}

func floatEnv(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if x, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return x
		}
	}
	return def
}
