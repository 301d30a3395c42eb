// Copyright 2025 Blink Labs Software
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

package badger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/ccgov/database/plugin/blob/badger"
	"github.com/stretchr/testify/assert"
)

func TestBadgerLoggerSwap(t *testing.T) {
	// A nil logger falls back to discarding
	l := badger.NewBadgerLogger(nil)
	l.Infof("dropped %d", 1)

	var buf bytes.Buffer
	l.SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	l.Warningf("value log %s", "gc")
	assert.Contains(t, buf.String(), "value log gc")
	assert.Contains(t, buf.String(), "\"component\":\"database\"")

	l.SetLogger(nil)
	buf.Reset()
	l.Errorf("ignored")
	assert.Empty(t, buf.String())
}
