/*
 * Copyright 2025 SREDiag Authors
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

package alloc

import "github.com/kelseyhightower/envconfig"

// settings are package defaults tunable through SHMALLOC_* environment
// variables: SHMALLOC_DIR, SHMALLOC_LOG_LEVEL, SHMALLOC_DEBUG_MODE.
type settings struct {
	Dir       string `default:"/dev/shm"`
	LogLevel  int    `default:"3" split_words:"true"`
	DebugMode bool   `split_words:"true"`
}

var defaults settings

func init() {
	if err := envconfig.Process("shmalloc", &defaults); err != nil {
		defaults = settings{Dir: "/dev/shm", LogLevel: levelWarn}
	}
	if defaults.LogLevel >= levelTrace && defaults.LogLevel <= levelNoPrint {
		level = defaults.LogLevel
	}
}
