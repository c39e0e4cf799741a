// SPDX-License-Identifier: GPL-3.0-or-later
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadConfigDefaults(t *testing.T) {
	path := writeFile(t, "config.toml", `Database = "/home/user/mail"`)

	c, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/home/user/mail", c.Database)
	assert.Equal(t, []string{"INBOX"}, c.SyncFolders)
	assert.Equal(t, "spam", c.SpamTag)
	assert.False(t, c.DryRun)
	assert.False(t, c.ClassifierConfigured())
	assert.Error(t, c.ValidateImap())
}

func TestReadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"missing database", `ImapHost = "imap.example.com:993"`, true},
		{"both classifiers", "Database = \"/m\"\nSpamassassinHost = \"localhost:783\"\nRspamdController = \"http://localhost:11334\"\nRspamdPassword = \"x\"", true},
		{"rspamd without password", "Database = \"/m\"\nRspamdController = \"http://localhost:11334\"", true},
		{"spamassassin", "Database = \"/m\"\nSpamassassinHost = \"localhost:783\"", false},
		{"malformed", "Database = ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadConfig(writeFile(t, "config.toml", tt.content))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateImap(t *testing.T) {
	c := &Config{
		Database:    "/m",
		ImapHost:    "imap.example.com:993",
		User:        "user",
		Password:    "secret",
		SyncFolders: []string{"INBOX"},
	}
	assert.NoError(t, c.ValidateImap())

	c.SyncFolders = nil
	assert.Error(t, c.ValidateImap())
}

func TestReadNotmuchConfig(t *testing.T) {
	path := writeFile(t, "notmuch-config", `# notmuch config
[database]
path=/home/user/mail

[user]
name=Some User
primary_email=user@example.com

[new]
tags=unread;inbox;
ignore=.mbsyncstate;.uidvalidity

[search]
exclude_tags=deleted;spam;

[maildir]
synchronize_flags=true
`)

	settings, err := ReadNotmuchConfig(path, "")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/mail", settings["database.path"])
	assert.Equal(t, "Some User", settings["user.name"])
	assert.Equal(t, "user@example.com", settings["user.primary_email"])
	assert.Equal(t, "unread;inbox;", settings["new.tags"])
	assert.Equal(t, ".mbsyncstate;.uidvalidity", settings["new.ignore"])
	assert.Equal(t, "deleted;spam;", settings["search.exclude_tags"])
	assert.Equal(t, "true", settings["maildir.synchronize_flags"])
}

func TestReadNotmuchConfigMissing(t *testing.T) {
	_, err := ReadNotmuchConfig(filepath.Join(t.TempDir(), "nope"), "")
	assert.Error(t, err)
}

func TestDefaultNotmuchConfigPath(t *testing.T) {
	explicit := writeFile(t, "explicit", "")
	t.Setenv("NOTMUCH_CONFIG", explicit)
	assert.Equal(t, explicit, DefaultNotmuchConfigPath(""))

	xdg := t.TempDir()
	t.Setenv("NOTMUCH_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())
	assert.Equal(t, "", DefaultNotmuchConfigPath("work"))

	profileConfig := filepath.Join(xdg, "notmuch", "work", "config")
	require.NoError(t, os.MkdirAll(filepath.Dir(profileConfig), 0o700))
	require.NoError(t, os.WriteFile(profileConfig, nil, 0o600))
	assert.Equal(t, profileConfig, DefaultNotmuchConfigPath("work"))
}
