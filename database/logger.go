/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tomoncle/crudgrid/utils"
)

var (
	globalLogger   Logger
	globalLoggerMu sync.RWMutex
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelNames = [...]string{"debug", "info", "warn", "error"}

func (l LogLevel) String() string {
	if l < LogLevelDebug || l > LogLevelError {
		return levelNames[LogLevelDebug]
	}
	return levelNames[l]
}

// Logger is the key/value logging facade shared by the database layer and
// the controllers. Fields alternate keys and values; a trailing key without
// a value is logged under "extra".
type Logger interface {
	SetLevel(LogLevel)
	// With returns a child logger that adds fields to every record.
	With(fields ...interface{}) Logger
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// InitLogger installs log as the global logger unless one is already set.
func InitLogger(log Logger) {
	if log == nil {
		return
	}
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = log
	}
}

// GetLogger returns the global logger, installing a "DATABASE" logger on
// first use.
func GetLogger() Logger {
	globalLoggerMu.RLock()
	l := globalLogger
	globalLoggerMu.RUnlock()
	if l != nil {
		return l
	}
	InitLogger(NewDefaultLogger("DATABASE"))
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// DefaultLogger writes through the named logrus logger of utils.NewLogger.
type DefaultLogger struct {
	name   string
	logger *logrus.Logger
	fields logrus.Fields
}

func NewDefaultLogger(name string) *DefaultLogger {
	return &DefaultLogger{name: name, logger: utils.NewLogger(name)}
}

func (l *DefaultLogger) With(fields ...interface{}) Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields)/2)
	for k, v := range l.fields {
		merged[k] = v
	}
	addFields(merged, fields)
	return &DefaultLogger{name: l.name, logger: l.logger, fields: merged}
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) { l.entry(fields).Debug(msg) }

func (l *DefaultLogger) Info(msg string, fields ...interface{}) { l.entry(fields).Info(msg) }

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) { l.entry(fields).Warn(msg) }

func (l *DefaultLogger) Error(msg string, fields ...interface{}) { l.entry(fields).Error(msg) }

// SetLevel changes the level of the underlying named logger, so every
// child shares it.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	utils.SetLoggerLevel(l.name, level.String())
}

func (l *DefaultLogger) entry(fields []interface{}) *logrus.Entry {
	data := make(logrus.Fields, len(l.fields)+len(fields)/2)
	for k, v := range l.fields {
		data[k] = v
	}
	addFields(data, fields)
	return l.logger.WithFields(data)
}

func addFields(data logrus.Fields, fields []interface{}) {
	for i := 0; i < len(fields); i += 2 {
		if i+1 == len(fields) {
			data["extra"] = fields[i]
			break
		}
		data[strings.TrimSpace(fmt.Sprint(fields[i]))] = fields[i+1]
	}
}
