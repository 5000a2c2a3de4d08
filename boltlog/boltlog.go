/*
 * Copyright 2024 CloudWeGo Authors
 *
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

// Package boltlog defines the logging seam used by a Connection: a
// small interface, a no-op default, and a stdlib log.Logger-backed
// adapter, following
// gopool's own log.Printf-on-panic idiom rather than pulling in a
// structured logging library this single-connection core has no use
// for.
package boltlog

import (
	"log"
	"os"
)

// Logger is the seam a Connection logs through. Messages never include
// credentials or auth tokens.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Nop discards everything; it is the default when no Logger is configured.
var Nop Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// Std adapts a stdlib *log.Logger to Logger, prefixing each line with
// its level.
type Std struct {
	l *log.Logger
}

// NewStd wraps l; if l is nil it wraps a new logger writing to
// os.Stderr with log.LstdFlags.
func NewStd(l *log.Logger) *Std {
	if l == nil {
		l = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Std{l: l}
}

func (s *Std) Debugf(format string, args ...interface{}) { s.l.Printf("DEBUG bolt: "+format, args...) }
func (s *Std) Infof(format string, args ...interface{})  { s.l.Printf("INFO bolt: "+format, args...) }
func (s *Std) Warnf(format string, args ...interface{})  { s.l.Printf("WARN bolt: "+format, args...) }
func (s *Std) Errorf(format string, args ...interface{}) { s.l.Printf("ERROR bolt: "+format, args...) }
