// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// noPanicFunc
// a function whose panic is logged and suppressed
type noPanicFunc func()

// run
// runs and recovers function
func (f noPanicFunc) run(taskName string) {
	defer internalRecover(taskName)
	f()
}

// SafeAsync
// suppress panics within goroutine
func SafeAsync(function noPanicFunc) {
	go function.run("")
}

// SafeAsyncNamed
// suppress panics within goroutine, the task name goes to the log on failure
func SafeAsyncNamed(taskName string, function noPanicFunc) {
	go function.run(taskName)
}

// SafeCall
// runs the function and turns its panic into an error
func SafeCall(function func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Tracef("Stacktrace: %v", string(debug.Stack()))
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()
	return function()
}

// internalRecover
// panic recovery
func internalRecover(taskName string) {
	if err := recover(); err != nil {
		if taskName != "" {
			log.Errorf("Task '%s' failed with panic: %v", taskName, err)
		} else {
			log.Errorf("Request failed with panic: %v", err)
		}
		log.Tracef("Stacktrace: %v", string(debug.Stack()))
		return
	}
}
