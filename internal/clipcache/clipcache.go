// SPDX-License-Identifier: EPL-2.0

// Package clipcache keeps fully decoded clips in memory, keyed by file path.
//
// Entries expire after a TTL. When watching is enabled, an entry is also
// dropped as soon as its file is written, removed or renamed.
package clipcache

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/fsnotify/fsnotify"
	"github.com/ik5/audmix/audio"
	"github.com/patrickmn/go-cache"
)

var ErrClosed = errors.New("clip cache is closed")

type Config struct {
	TTL   time.Duration // <= 0 keeps entries until evicted by a file change
	Watch bool
	Log   slog.Logger
}

type Cache struct {
	items *cache.Cache
	log   slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	watched map[string]struct{}
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func New(cfg Config) (*Cache, error) {
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}

	ttl := cfg.TTL
	cleanup := ttl
	if ttl <= 0 {
		ttl = cache.NoExpiration
		cleanup = 0
	}

	c := &Cache{
		items:   cache.New(ttl, cleanup),
		log:     cfg.Log,
		watched: make(map[string]struct{}),
		done:    make(chan struct{}),
	}

	c.items.OnEvicted(func(key string, _ any) {
		c.unwatch(key)
	})

	if cfg.Watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("creating file watcher: %w", err)
		}
		c.watcher = w
		c.wg.Add(1)
		go c.watch()
	}

	return c, nil
}

func key(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// Get returns the clip cached for path.
func (c *Cache) Get(path string) (*audio.Clip, bool) {
	v, ok := c.items.Get(key(path))
	if !ok {
		return nil, false
	}

	clip, ok := v.(*audio.Clip)
	return clip, ok
}

// Put caches clip for path and starts watching the file when enabled.
func (c *Cache) Put(path string, clip *audio.Clip) error {
	k := key(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if c.watcher != nil {
		if _, ok := c.watched[k]; !ok {
			if err := c.watcher.Add(k); err != nil {
				return fmt.Errorf("watching %s: %w", k, err)
			}
			c.watched[k] = struct{}{}
		}
	}

	c.items.SetDefault(k, clip)
	return nil
}

// Evict drops the entry for path.
func (c *Cache) Evict(path string) {
	c.items.Delete(key(path))
}

// Len is the number of cached clips, including expired ones not yet cleaned up.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

// Close stops watching and drops every entry. It is safe to call twice.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	w := c.watcher
	c.mu.Unlock()

	var err error
	if w != nil {
		err = w.Close()
	}
	c.wg.Wait()
	c.items.Flush()

	return err
}

func (c *Cache) unwatch(k string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.watched[k]; !ok || c.watcher == nil || c.closed {
		return
	}
	delete(c.watched, k)
	if err := c.watcher.Remove(k); err != nil {
		c.log.Debugf("Unwatching %s: %v", k, err)
	}
}

func (c *Cache) watch() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Create) {
				c.log.Debugf("Evicting %s after %s", ev.Name, ev.Op)
				c.items.Delete(key(ev.Name))
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.log.Warnf("File watcher: %v", err)
		}
	}
}
