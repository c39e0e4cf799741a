// SPDX-License-Identifier: GPL-3.0-or-later
package log

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggers     map[string]*logrus.Logger
	loggersLock sync.Mutex
)

func NewPrefixLogger(prefix string) *PrefixLogger {
	stringPrefix := fmt.Sprintf("%s:\t", prefix)

	formatter := &logrus.TextFormatter{}
	formatter.FullTimestamp = true
	formatter.TimestampFormat = "15:04:05"
	formatter.DisableColors = strings.Contains(runtime.GOOS, "windows")
	return &PrefixLogger{
		formatter,
		[]byte(stringPrefix),
	}
}

type PrefixLogger struct {
	formatter logrus.Formatter
	prefix    []byte
}

func (f *PrefixLogger) Format(entry *logrus.Entry) ([]byte, error) {
	text, err := f.formatter.Format(entry)
	if err != nil {
		return nil, err
	}
	return append(f.prefix, text...), nil
}

const (
	LOG_MAIN        = "MA"
	LOG_HANDLE      = "HD"
	LOG_ENGINE      = "EN"
	LOG_PERSISTENCE = "PI"
	LOG_IMAP        = "IM"
	LOG_SYNC        = "SY"
	LOG_INDEXER     = "IX"
	LOG_CLASSIFIER  = "CL"
)

var prefixes = []string{
	LOG_MAIN,
	LOG_HANDLE,
	LOG_ENGINE,
	LOG_PERSISTENCE,
	LOG_IMAP,
	LOG_SYNC,
	LOG_INDEXER,
	LOG_CLASSIFIER,
}

// DefaultLevel is used when a logger is requested before InitLogging ran,
// which is the normal case for library users.
const DefaultLevel = "warn"

func getLevel(loglevel string) logrus.Level {
	switch strings.ToLower(loglevel) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "panic":
		return logrus.PanicLevel
	case "fatal":
		return logrus.FatalLevel
	}

	// Info is default
	return logrus.InfoLevel
}

func initLogger(prefix, loglevel string) {
	loggers[prefix] = logrus.New()
	loggers[prefix].Level = getLevel(loglevel)
	loggers[prefix].Formatter = NewPrefixLogger(prefix)
}

func InitLogging(loglevel string) {
	loggersLock.Lock()
	defer loggersLock.Unlock()

	initLocked(loglevel)
}

func initLocked(loglevel string) {
	loggers = make(map[string]*logrus.Logger)
	for _, prefix := range prefixes {
		initLogger(prefix, loglevel)
	}
}

func SetLogLevel(loglevel string) {
	loggersLock.Lock()
	defer loggersLock.Unlock()

	for _, v := range loggers {
		v.Level = getLevel(loglevel)
	}
}

func Logger(logger string) *logrus.Logger {
	loggersLock.Lock()
	defer loggersLock.Unlock()

	if loggers == nil {
		initLocked(DefaultLevel)
	}

	l, ok := loggers[logger]
	if !ok {
		panic("Logger " + logger + " unknown")
	}

	return l
}
