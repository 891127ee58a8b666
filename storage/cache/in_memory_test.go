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

package cache

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type InMemoryTestSuite struct {
	baseTestSuite
}

func (suite *InMemoryTestSuite) SetupSuite() {
	var err error
	suite.Database, err = Open("inmemory://")
	suite.NoError(err)
}

func TestInMemory(t *testing.T) {
	suite.Run(t, new(InMemoryTestSuite))
}
