/*
 *  Copyright 2024 qitoi
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

package porterload

import (
	"errors"
	"fmt"
	"runtime"
)

// TracebackError carries the location where an error was wrapped.
type TracebackError struct {
	err      error
	file     string
	line     int
	function string
}

func (e *TracebackError) Error() string {
	return e.err.Error()
}

func (e *TracebackError) Unwrap() error {
	return e.err
}

// Traceback returns the wrapping location formatted as "file:line (function)".
func (e *TracebackError) Traceback() string {
	return fmt.Sprintf("%s:%d (%s)", e.file, e.line, e.function)
}

// Wrap records the caller's location on err so the master can show where it was raised.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	pc := make([]uintptr, 1)
	n := runtime.Callers(2, pc)
	frame, _ := runtime.CallersFrames(pc[:n]).Next()
	return &TracebackError{
		err:      err,
		file:     frame.File,
		line:     frame.Line,
		function: frame.Function,
	}
}

// Traceback returns the traceback of the first wrapped TracebackError in err, or "".
func Traceback(err error) string {
	var te *TracebackError
	if errors.As(err, &te) {
		return te.Traceback()
	}
	return ""
}
