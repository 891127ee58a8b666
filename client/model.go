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

package client

import "time"

type Feedback struct {
	FeedbackType string    `json:"FeedbackType"`
	UserId       string    `json:"UserId"`
	ItemId       string    `json:"ItemId"`
	Rating       float64   `json:"Rating"`
	Timestamp    time.Time `json:"Timestamp"`
	Comment      string    `json:"Comment"`
}

type Item struct {
	ItemId     string    `json:"ItemId"`
	IsHidden   bool      `json:"IsHidden"`
	Categories []string  `json:"Categories"`
	Timestamp  time.Time `json:"Timestamp"`
	Labels     []string  `json:"Labels"`
	Rating     float64   `json:"Rating"`
	Comment    string    `json:"Comment"`
}

type RowAffected struct {
	RowAffected int `json:"RowAffected"`
}

type ItemIterator struct {
	Cursor string `json:"Cursor"`
	Items  []Item `json:"Items"`
}

type ErrorMessage string

func (e ErrorMessage) Error() string {
	return string(e)
}
