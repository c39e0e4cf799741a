// SPDX-License-Identifier: GPL-3.0-or-later
package notmuch

import (
	"github.com/CrawX/go-notmuch/native"
)

// Config returns the value stored in the database for key, or "".
func (db *Database) Config(key string) (string, error) {
	b, st := db.lib.DatabaseGetConfig(db.ptr(), key)
	if err := db.check("database_get_config", st); err != nil {
		return "", err
	}
	return decode("database_get_config", b)
}

// SetConfig stores value for key in the database.
func (db *Database) SetConfig(key, value string) error {
	return db.check("database_set_config", db.lib.DatabaseSetConfig(db.ptr(), key, value))
}

// ConfigList iterates the keys stored in the database starting with prefix.
func (db *Database) ConfigList(prefix string) (*ConfigList, error) {
	ptr, st := db.lib.DatabaseGetConfigList(db.ptr(), prefix)
	if err := db.check("database_get_config_list", st); err != nil {
		return nil, err
	}
	o, err := db.derived("database_get_config_list", native.KindConfigList, ptr)
	if err != nil {
		return nil, err
	}
	return &ConfigList{pairCursor(o, "config_list",
		native.Library.ConfigListValid,
		native.Library.ConfigListKey,
		native.Library.ConfigListValue,
		native.Library.ConfigListMoveToNext,
	)}, nil
}

// ConfigByName returns the effective value of a well known key, taking the
// config file and the defaults into account.
func (db *Database) ConfigByName(key ConfigKey) (string, error) {
	b := db.lib.ConfigGet(db.ptr(), key)
	if b == nil {
		return "", db.fail("config_get", native.StatusIllegalArgument)
	}
	return decode("config_get", b)
}

func (db *Database) SetConfigByName(key ConfigKey, value string) error {
	return db.check("config_set", db.lib.ConfigSet(db.ptr(), key, value))
}

// ConfigValues iterates the ';' separated values of a well known key.
func (db *Database) ConfigValues(key ConfigKey) (*ConfigValues, error) {
	o, err := db.derived("config_get_values", native.KindConfigValues, db.lib.ConfigGetValues(db.ptr(), key))
	if err != nil {
		return nil, err
	}
	return newConfigValues(o), nil
}

// ConfigValuesByName is ConfigValues for an arbitrary key.
func (db *Database) ConfigValuesByName(key string) (*ConfigValues, error) {
	o, err := db.derived("config_get_values_string", native.KindConfigValues, db.lib.ConfigGetValuesString(db.ptr(), key))
	if err != nil {
		return nil, err
	}
	return newConfigValues(o), nil
}

// ConfigPairs iterates the effective configuration below prefix.
func (db *Database) ConfigPairs(prefix string) (*ConfigPairs, error) {
	o, err := db.derived("config_get_pairs", native.KindConfigPairs, db.lib.ConfigGetPairs(db.ptr(), prefix))
	if err != nil {
		return nil, err
	}
	return &ConfigPairs{pairCursor(o, "config_pairs",
		native.Library.ConfigPairsValid,
		native.Library.ConfigPairsKey,
		native.Library.ConfigPairsValue,
		native.Library.ConfigPairsMoveToNext,
	)}, nil
}

func (db *Database) ConfigBool(key ConfigKey) (bool, error) {
	v, st := db.lib.ConfigGetBool(db.ptr(), key)
	return v, db.check("config_get_bool", st)
}

// ConfigPath returns the config file the database was opened with, or "".
func (db *Database) ConfigPath() string {
	return lossy(db.lib.ConfigPath(db.ptr()))
}

// ConfigList is a cursor over keys stored in the database.
type ConfigList struct {
	cursor[Pair]
}

func (l *ConfigList) Share() *ConfigList {
	return &ConfigList{l.shareCursor()}
}

// ConfigPairs is a cursor over effective configuration keys.
type ConfigPairs struct {
	cursor[Pair]
}

func (p *ConfigPairs) Share() *ConfigPairs {
	return &ConfigPairs{p.shareCursor()}
}

// ConfigValues is a cursor over the values of a list valued key. Unlike
// other cursors it can be restarted.
type ConfigValues struct {
	cursor[string]
}

func newConfigValues(o object) *ConfigValues {
	return &ConfigValues{stringCursor(o, "config_values_get",
		native.Library.ConfigValuesValid,
		native.Library.ConfigValuesGet,
		native.Library.ConfigValuesMoveToNext,
	)}
}

func (v *ConfigValues) Share() *ConfigValues {
	return &ConfigValues{v.shareCursor()}
}

// Restart moves the cursor back to the first value.
func (v *ConfigValues) Restart() {
	v.lib.ConfigValuesStart(v.ptr())
	v.exhausted = false
	v.err = nil
}
