package cloudy

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/pkg/errors"
)

// cachedScript is a parsed program and the file state it was parsed from
type cachedScript struct {
	program Node
	modTime time.Time
	size    int64
}

// ScriptCache keeps parsed scripts loaded by run() so repeated calls skip
// lexing and parsing while the file is unchanged
type ScriptCache struct {
	cache  *ttlcache.Cache[string, *cachedScript]
	ttl    time.Duration
	logger *Logger
}

// NewScriptCache creates a cache whose entries live for ttl; ttl <= 0 disables caching
func NewScriptCache(ttl time.Duration, logger *Logger) *ScriptCache {
	c := &ScriptCache{ttl: ttl, logger: logger}
	if ttl > 0 {
		c.cache = ttlcache.New[string, *cachedScript](
			ttlcache.WithTTL[string, *cachedScript](ttl),
			ttlcache.WithDisableTouchOnHit[string, *cachedScript](),
		)
	}
	return c
}

// Program returns the program stored at path. Read failures are wrapped with
// the path; parse failures are returned as *Error.
func (c *ScriptCache) Program(path string, parse func(name, source string) (Node, *Error)) (Node, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	if c.cache != nil {
		if item := c.cache.Get(abs); item != nil {
			entry := item.Value()
			if entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
				c.logger.DebugCat(CatIO, "script cache hit: %s", abs)
				return entry.program, nil
			}
			c.cache.Delete(abs)
		}
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	c.logger.InfoCat(CatIO, "loaded %s (%d bytes)", abs, len(data))

	program, parseErr := parse(path, string(data))
	if parseErr != nil {
		return nil, parseErr
	}

	if c.cache != nil {
		c.cache.Set(abs, &cachedScript{program: program, modTime: info.ModTime(), size: info.Size()}, ttlcache.DefaultTTL)
	}
	return program, nil
}

// Len returns the number of cached scripts
func (c *ScriptCache) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

// Clear drops every cached script
func (c *ScriptCache) Clear() {
	if c.cache != nil {
		c.cache.DeleteAll()
	}
}
