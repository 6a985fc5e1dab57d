// Package debugctl is the live parameter surface of the backdrop shader.
// The color profile is driven by the number keys and by an optional TOML
// file that is reloaded whenever it changes on disk.
package debugctl

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"backdrop-engine/envshader"
	"backdrop-engine/math"
)

// fileParams mirrors the watched file. Absent keys leave the value alone.
type fileParams struct {
	Profile   *int        `toml:"profile"`
	Bluriness *float32    `toml:"bluriness"`
	Direction *[2]float32 `toml:"direction"`
}

// Control holds the current values. All methods run on the frame
// goroutine; file events are only drained by Poll.
type Control struct {
	log *slog.Logger

	profile   envshader.Profile
	bluriness *float32
	direction *math.Vec2

	path    string
	watcher *fsnotify.Watcher
	changed bool
}

func New(profile envshader.Profile, log *slog.Logger) *Control {
	if log == nil {
		log = slog.Default()
	}
	if !profile.Valid() {
		profile = envshader.DefaultProfile
	}
	return &Control{log: log, profile: profile}
}

// Profile is read by the frame driver every tick.
func (c *Control) Profile() envshader.Profile { return c.profile }

// SetProfile rejects values outside the three profiles.
func (c *Control) SetProfile(p envshader.Profile) error {
	if !p.Valid() {
		return fmt.Errorf("set profile: %w: %d", envshader.ErrInvalidProfile, int(p))
	}
	if p != c.profile {
		c.profile = p
		c.changed = true
		c.log.Info("color profile changed", "profile", p)
	}
	return nil
}

// HandleKey maps the characters '0', '1' and '2' to profiles. It reports
// whether the key was consumed.
func (c *Control) HandleKey(ch rune) bool {
	switch ch {
	case '0', '1', '2':
		_ = c.SetProfile(envshader.Profile(ch - '0'))
		return true
	}
	return false
}

// Params applies the file overrides on top of base. The profile always
// comes from the control.
func (c *Control) Params(base envshader.Params) envshader.Params {
	if c.bluriness != nil {
		base.Bluriness = *c.bluriness
	}
	if c.direction != nil {
		base.Direction = *c.direction
	}
	base.Profile = c.profile
	return base
}

// Watch loads path and reloads it on every write. The parent directory is
// watched so editors that replace the file are seen too.
func (c *Control) Watch(path string) error {
	if c.watcher != nil {
		return errors.New("debugctl: already watching")
	}
	c.path = filepath.Clean(path)
	if err := c.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("debugctl: watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(c.path)); err != nil {
		w.Close()
		return fmt.Errorf("debugctl: watch %s: %w", c.path, err)
	}
	c.watcher = w
	c.log.Info("watching shader params", "path", c.path)
	return nil
}

// Reload reads the params file once.
func (c *Control) Reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("debugctl: read %s: %w", c.path, err)
	}
	var fp fileParams
	if err := toml.Unmarshal(data, &fp); err != nil {
		return fmt.Errorf("debugctl: parse %s: %w", c.path, err)
	}
	if fp.Profile != nil {
		p, err := envshader.NewProfile(*fp.Profile)
		if err != nil {
			return fmt.Errorf("debugctl: %s: %w", c.path, err)
		}
		if err := c.SetProfile(p); err != nil {
			return err
		}
	}
	if fp.Bluriness != nil {
		c.bluriness = fp.Bluriness
	}
	if fp.Direction != nil {
		d := math.Vec2{X: fp.Direction[0], Y: fp.Direction[1]}
		c.direction = &d
	}
	c.changed = true
	return nil
}

// Poll drains pending file events without blocking and reports whether
// anything changed since the previous Poll. A bad file is logged and the
// previous values stay.
func (c *Control) Poll() bool {
	if c.watcher != nil {
	drain:
		for {
			select {
			case ev, ok := <-c.watcher.Events:
				if !ok {
					break drain
				}
				if filepath.Clean(ev.Name) != c.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if err := c.Reload(); err != nil {
					c.log.Warn("shader params reload failed", "err", err)
				}
			case err, ok := <-c.watcher.Errors:
				if !ok {
					break drain
				}
				c.log.Warn("shader params watcher", "err", err)
			default:
				break drain
			}
		}
	}
	changed := c.changed
	c.changed = false
	return changed
}

func (c *Control) Close() error {
	if c.watcher == nil {
		return nil
	}
	err := c.watcher.Close()
	c.watcher = nil
	return err
}
