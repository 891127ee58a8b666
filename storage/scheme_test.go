// Copyright 2025 reco Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestAppendURLParams(t *testing.T) {
	url, err := AppendURLParams("postgres://localhost:5432/reco", []lo.Tuple2[string, string]{
		{A: "sslmode", B: "disable"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/reco?sslmode=disable", url)

	url, err = AppendURLParams("postgres://localhost:5432/reco?sslmode=disable", []lo.Tuple2[string, string]{
		{A: "application_name", B: "reco"},
	})
	assert.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/reco?application_name=reco&sslmode=disable", url)
}

func TestAppendMySQLParams(t *testing.T) {
	dsn, err := AppendMySQLParams("root:password@tcp(localhost:3306)/reco", map[string]string{
		"parseTime": "true",
	})
	assert.NoError(t, err)
	assert.Equal(t, "root:password@tcp(localhost:3306)/reco?parseTime=true", dsn)
}

func TestTablePrefix(t *testing.T) {
	prefix := TablePrefix("reco_")
	assert.Equal(t, "reco_items", prefix.ItemsTable())
	assert.Equal(t, "reco_feedback", prefix.FeedbackTable())
}
