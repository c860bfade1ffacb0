// Package cache stores the results of expensive queries on disk for a limited time.
// The cache is advisory: every failure is reported as a miss.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/naka-gawa/profile-banner/internal/fsutil"
)

// Cache is a directory of YAML files named by the hash of their key.
type Cache struct {
	fs     afero.Fs
	dir    string
	maxAge time.Duration
	now    func() time.Time
	logger logrus.FieldLogger
}

// New creates a Cache rooted at dir. Entries older than maxAge are ignored.
func New(fs afero.Fs, dir string, maxAge time.Duration, logger logrus.FieldLogger) *Cache {
	return &Cache{
		fs:     fs,
		dir:    dir,
		maxAge: maxAge,
		now:    time.Now,
		logger: logger,
	}
}

func (c *Cache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".yaml")
}

// Get decodes the entry for key into out and reports whether it was usable.
func (c *Cache) Get(key string, out interface{}) bool {
	if c == nil {
		return false
	}
	log := c.logger.WithField("key", key)
	p := c.path(key)

	info, err := c.fs.Stat(p)
	if err != nil {
		log.Debug("cache miss")
		return false
	}
	if age := c.now().Sub(info.ModTime()); age > c.maxAge {
		log.WithField("age", age.Round(time.Second)).Debug("cache entry expired")
		return false
	}
	data, err := afero.ReadFile(c.fs, p)
	if err != nil {
		log.WithError(err).Debug("cache entry unreadable")
		return false
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		log.WithError(err).Debug("cache entry corrupt")
		return false
	}
	// An empty or null document decodes without error but carries no value.
	if len(node.Content) == 0 || node.Content[0].ShortTag() == "!!null" {
		log.Debug("cache entry empty")
		return false
	}
	if err := node.Decode(out); err != nil {
		log.WithError(err).Debug("cache entry corrupt")
		return false
	}
	log.Debug("cache hit")
	return true
}

// Put stores v under key. Failures are logged and otherwise ignored.
func (c *Cache) Put(key string, v interface{}) {
	if c == nil {
		return
	}
	log := c.logger.WithField("key", key)
	data, err := yaml.Marshal(v)
	if err != nil {
		log.WithError(err).Warn("failed to encode cache entry")
		return
	}
	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		log.WithError(err).Warn("failed to create cache directory")
		return
	}
	if err := fsutil.WriteFileAtomic(c.fs, c.path(key), data, 0o644); err != nil {
		log.WithError(err).Warn("failed to write cache entry")
	}
}
