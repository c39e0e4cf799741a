// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ReadNotmuchConfig reads a notmuch config file and returns its settings
// flattened to "section.key" names, e.g. "new.tags". List values keep their
// ';' separators.
func ReadNotmuchConfig(path, profile string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read notmuch config %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigType("ini")
	if err := v.ReadConfig(bytes.NewReader(quoteValues(raw))); err != nil {
		return nil, fmt.Errorf("could not parse notmuch config %s: %w", path, err)
	}

	settings := map[string]string{}
	for _, key := range v.AllKeys() {
		if strings.HasPrefix(key, "default.") {
			continue
		}
		settings[key] = strings.TrimSpace(v.GetString(key))
	}
	if profile != "" {
		settings["notmuch.profile"] = profile
	}
	return settings, nil
}

// quoteValues wraps every value in backquotes, so ';' separated lists are
// not cut at the first ';' as an inline comment.
func quoteValues(raw []byte) []byte {
	var out bytes.Buffer
	for _, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		i := strings.Index(trimmed, "=")
		if i < 0 || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "[") {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}
		key := strings.TrimSpace(trimmed[:i])
		value := strings.TrimSpace(trimmed[i+1:])
		if strings.Contains(value, "`") {
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}
		fmt.Fprintf(&out, "%s = `%s`\n", key, value)
	}
	return out.Bytes()
}

// DefaultNotmuchConfigPath returns the config file notmuch itself would use
// for profile: $NOTMUCH_CONFIG, then the XDG location, then
// ~/.notmuch-config. It returns "" if none of them exists.
func DefaultNotmuchConfigPath(profile string) string {
	if p := os.Getenv("NOTMUCH_CONFIG"); p != "" {
		return p
	}
	if profile == "" {
		profile = os.Getenv("NOTMUCH_PROFILE")
	}

	candidates := []string{}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	home, _ := os.UserHomeDir()
	if xdg == "" && home != "" {
		xdg = filepath.Join(home, ".config")
	}
	dir := profile
	if dir == "" {
		dir = "default"
	}
	if xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "notmuch", dir, "config"))
	}
	if home != "" {
		name := ".notmuch-config"
		if profile != "" {
			name += "." + profile
		}
		candidates = append(candidates, filepath.Join(home, name))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
