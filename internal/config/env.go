package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "BOUNCE_"

// lookupFunc resolves one BOUNCE_* variable.
type lookupFunc func(key string) (string, bool)

// readEnv merges the .env file under the process environment. Real
// environment variables win.
func readEnv(envFile string) (lookupFunc, error) {
	file := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			file = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}, nil
}

func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(envPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookup(envPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	var role string
	str("ROLE", &role)
	if role != "" {
		c.Role = Role(role)
	}

	str("SIGNAL", &c.Signaling.Kind)
	str("HOST", &c.Signaling.Host)
	num("PORT", &c.Signaling.Port)
	str("PATH", &c.Signaling.Path)

	num("FPS", &c.Media.FPS)
	num("CYCLES", &c.Media.Cycles)
	num("MAX_FRAMES", &c.Media.MaxFrames)
	num("QUEUE_SIZE", &c.Media.QueueSize)
	str("SNAPSHOT_DIR", &c.Media.SnapshotDir)
	num("SNAPSHOT_EVERY", &c.Media.SnapshotEvery)

	if v, ok := lookup(envPrefix + "STUN"); ok {
		c.WebRTC.STUNServers = splitList(v)
	}
	flag("LOOPBACK", &c.WebRTC.IncludeLoopback)

	if v, ok := lookup(envPrefix + "STATS_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSTATS_INTERVAL: %w", envPrefix, err))
		} else {
			c.StatsInterval = d
		}
	}
	flag("DEBUG", &c.Debug)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
