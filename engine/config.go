// SPDX-License-Identifier: GPL-3.0-or-later
package engine

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/CrawX/go-notmuch/native"
)

func (d *database) defaults() map[string]string {
	return map[string]string{
		native.ConfigDatabasePath.Name():     d.path,
		native.ConfigMailRoot.Name():         d.path,
		native.ConfigHookDir.Name():          filepath.Join(d.path, IndexDir, "hooks"),
		native.ConfigBackupDir.Name():        filepath.Join(d.path, IndexDir, "backups"),
		native.ConfigNewTags.Name():          "unread;inbox",
		native.ConfigSyncMaildirFlags.Name(): "true",
		native.ConfigAutocommit.Name():       "8000",
	}
}

// config resolves key: values stored in the index win over the config file,
// which wins over the built-in defaults.
func (d *database) config(key string) (string, bool) {
	value, ok, err := d.store.Config(key)
	if err != nil {
		d.storeError(err)
	}
	if ok {
		return value, true
	}
	if value, ok := d.file[key]; ok {
		return value, true
	}
	value, ok = d.defaults()[key]
	return value, ok
}

// splitList splits a ';' separated config value, dropping empty items.
func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ";") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "1":
		return true, true
	case "false", "no", "0", "":
		return false, true
	}
	return false, false
}

func (e *Engine) DatabaseGetConfig(p native.Ptr, key string) ([]byte, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_get_config", p)
	if d == nil {
		return nil, native.StatusNullPointer
	}
	if st := d.readable(); st != native.StatusSuccess {
		return nil, st
	}
	value, ok, err := d.store.Config(key)
	if err != nil {
		return nil, d.storeError(err)
	}
	if !ok {
		return []byte{}, native.StatusSuccess
	}
	return []byte(value), native.StatusSuccess
}

func (e *Engine) DatabaseSetConfig(p native.Ptr, key, value string) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_set_config", p)
	if d == nil {
		return native.StatusNullPointer
	}
	return d.write(func() error {
		return d.store.SetConfig(key, value)
	})
}

func (e *Engine) DatabaseGetConfigList(p native.Ptr, prefix string) (native.Ptr, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("database_get_config_list", p)
	if d == nil {
		return native.Nil, native.StatusNullPointer
	}
	if st := d.readable(); st != native.StatusSuccess {
		return native.Nil, st
	}
	entries, err := d.store.ConfigWithPrefix(prefix)
	if err != nil {
		return native.Nil, d.storeError(err)
	}

	l := &pairList{}
	for _, entry := range entries {
		l.items = append(l.items, pair{entry.Key, entry.Value})
	}
	return e.alloc(p, native.KindConfigList, l), native.StatusSuccess
}

func (e *Engine) ConfigGet(p native.Ptr, key native.ConfigKey) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("config_get", p)
	if d == nil || d.readable() != native.StatusSuccess || key.Name() == "" {
		return nil
	}
	value, _ := d.config(key.Name())
	return []byte(value)
}

func (e *Engine) ConfigSet(p native.Ptr, key native.ConfigKey, value string) native.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("config_set", p)
	if d == nil {
		return native.StatusNullPointer
	}
	if key.Name() == "" {
		return native.StatusIllegalArgument
	}
	return d.write(func() error {
		return d.store.SetConfig(key.Name(), value)
	})
}

func (e *Engine) ConfigGetValues(p native.Ptr, key native.ConfigKey) native.Ptr {
	if key.Name() == "" {
		return native.Nil
	}
	return e.configValues("config_get_values", p, key.Name())
}

func (e *Engine) ConfigGetValuesString(p native.Ptr, key string) native.Ptr {
	return e.configValues("config_get_values_string", p, key)
}

func (e *Engine) configValues(op string, p native.Ptr, key string) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database(op, p)
	if d == nil || d.readable() != native.StatusSuccess {
		return native.Nil
	}
	value, _ := d.config(key)
	return e.alloc(p, native.KindConfigValues, newStrings(splitList(value)))
}

func (e *Engine) ConfigGetPairs(p native.Ptr, prefix string) native.Ptr {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("config_get_pairs", p)
	if d == nil || d.readable() != native.StatusSuccess {
		return native.Nil
	}

	merged := d.defaults()
	for k, v := range d.file {
		merged[k] = v
	}
	entries, err := d.store.ConfigWithPrefix(prefix)
	if err != nil {
		d.storeError(err)
		return native.Nil
	}
	for _, entry := range entries {
		merged[entry.Key] = entry.Value
	}

	l := &pairList{}
	for k, v := range merged {
		if strings.HasPrefix(k, prefix) {
			l.items = append(l.items, pair{k, v})
		}
	}
	sort.Slice(l.items, func(i, j int) bool { return l.items[i].key < l.items[j].key })
	return e.alloc(p, native.KindConfigPairs, l)
}

func (e *Engine) ConfigGetBool(p native.Ptr, key native.ConfigKey) (bool, native.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("config_get_bool", p)
	if d == nil {
		return false, native.StatusNullPointer
	}
	if st := d.readable(); st != native.StatusSuccess {
		return false, st
	}
	if key.Name() == "" {
		return false, native.StatusIllegalArgument
	}
	value, _ := d.config(key.Name())
	b, ok := parseBool(value)
	if !ok {
		return false, d.fail(native.StatusIllegalArgument, "%s is not a boolean: %q", key.Name(), value)
	}
	return b, native.StatusSuccess
}

func (e *Engine) ConfigPath(p native.Ptr) []byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.database("config_path", p)
	if d == nil || d.configPath == "" {
		return nil
	}
	return []byte(d.configPath)
}
