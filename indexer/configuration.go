// SPDX-License-Identifier: GPL-3.0-or-later
package indexer

import (
	"fmt"
	"regexp"
	"strings"
)

type ConfigFunc func(c *configuration) error

// FullScan reads every directory, even those whose mtime is unchanged since
// the last run.
func FullScan() ConfigFunc {
	return func(c *configuration) error {
		c.FullScan = true

		return nil
	}
}

// DryRun reports what would change without touching the index.
func DryRun() ConfigFunc {
	return func(c *configuration) error {
		c.DryRun = true

		return nil
	}
}

// Ignore skips files and directories matching one of patterns in addition
// to the new.ignore setting. A pattern enclosed in slashes is a regular
// expression matched against the path below the mail root, anything else
// must equal the base name.
func Ignore(patterns ...string) ConfigFunc {
	return func(c *configuration) error {
		for _, p := range patterns {
			if err := c.addIgnore(p); err != nil {
				return err
			}
		}
		return nil
	}
}

type configuration struct {
	FullScan bool
	DryRun   bool

	ignoreNames   map[string]bool
	ignoreRegexps []*regexp.Regexp
}

func (c *configuration) addIgnore(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil
	}

	if len(pattern) > 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
		re, err := regexp.Compile(pattern[1 : len(pattern)-1])
		if err != nil {
			return fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		c.ignoreRegexps = append(c.ignoreRegexps, re)
		return nil
	}

	if c.ignoreNames == nil {
		c.ignoreNames = map[string]bool{}
	}
	c.ignoreNames[pattern] = true
	return nil
}

// ignored reports whether the entry at rel, relative to the mail root, is
// skipped.
func (c *configuration) ignored(rel, name string) bool {
	if c.ignoreNames[name] {
		return true
	}
	for _, re := range c.ignoreRegexps {
		if re.MatchString(rel) {
			return true
		}
	}
	return false
}
