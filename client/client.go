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

// Package client is a Go SDK for the reco REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client connects to a reco server.
type Client struct {
	entryPoint string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client for the reco server at entryPoint.
func NewClient(entryPoint, apiKey string) *Client {
	return &Client{
		entryPoint: strings.TrimSuffix(entryPoint, "/"),
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
}

func request[Response any](ctx context.Context, c *Client, method, path string, body any) (result Response, err error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return result, err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.entryPoint+path, reader)
	if err != nil {
		return result, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, err
	}
	defer resp.Body.Close()
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, err
	}
	if resp.StatusCode != http.StatusOK {
		return result, ErrorMessage(strings.TrimSpace(string(buf)))
	}
	err = json.Unmarshal(buf, &result)
	return result, err
}

// InsertFeedback inserts feedback without overwriting existing events.
func (c *Client) InsertFeedback(ctx context.Context, feedback []Feedback) (RowAffected, error) {
	return request[RowAffected](ctx, c, http.MethodPost, "/api/feedback", feedback)
}

// PutFeedback inserts feedback, overwriting existing events.
func (c *Client) PutFeedback(ctx context.Context, feedback []Feedback) (RowAffected, error) {
	return request[RowAffected](ctx, c, http.MethodPut, "/api/feedback", feedback)
}

// ListFeedback returns all feedback left by a user.
func (c *Client) ListFeedback(ctx context.Context, userId string) ([]Feedback, error) {
	return request[[]Feedback](ctx, c, http.MethodGet, fmt.Sprintf("/api/feedback/%s", userId), nil)
}

// DeleteFeedback deletes all feedback between a user and an item.
func (c *Client) DeleteFeedback(ctx context.Context, userId, itemId string) (RowAffected, error) {
	return request[RowAffected](ctx, c, http.MethodDelete, fmt.Sprintf("/api/feedback/%s/%s", userId, itemId), nil)
}

// InsertItem inserts an item into the catalog.
func (c *Client) InsertItem(ctx context.Context, item Item) (RowAffected, error) {
	return request[RowAffected](ctx, c, http.MethodPost, "/api/item", item)
}

// InsertItems inserts items into the catalog.
func (c *Client) InsertItems(ctx context.Context, items []Item) (RowAffected, error) {
	return request[RowAffected](ctx, c, http.MethodPost, "/api/items", items)
}

// GetItem returns an item from the catalog.
func (c *Client) GetItem(ctx context.Context, itemId string) (Item, error) {
	return request[Item](ctx, c, http.MethodGet, fmt.Sprintf("/api/item/%s", itemId), nil)
}

// GetItems scans the catalog. Pass the returned cursor to get the next page,
// an empty cursor marks the end.
func (c *Client) GetItems(ctx context.Context, n int, cursor string) (ItemIterator, error) {
	return request[ItemIterator](ctx, c, http.MethodGet,
		fmt.Sprintf("/api/items?n=%d&cursor=%s", n, url.QueryEscape(cursor)), nil)
}

// DeleteItem deletes an item and its feedback.
func (c *Client) DeleteItem(ctx context.Context, itemId string) (RowAffected, error) {
	return request[RowAffected](ctx, c, http.MethodDelete, fmt.Sprintf("/api/item/%s", itemId), nil)
}

// GetRecommend returns recommended items for a user. Strategy is one of
// user-based, item-based or hybrid, defaulting to hybrid when empty.
func (c *Client) GetRecommend(ctx context.Context, userId, strategy string, n int) ([]Item, error) {
	return request[[]Item](ctx, c, http.MethodGet,
		fmt.Sprintf("/api/recommend/%s?strategy=%s&n=%d", userId, url.QueryEscape(strategy), n), nil)
}

// GetSimilar returns items similar to an item.
func (c *Client) GetSimilar(ctx context.Context, itemId string, n int) ([]Item, error) {
	return request[[]Item](ctx, c, http.MethodGet, fmt.Sprintf("/api/item/%s/similar?n=%d", itemId, n), nil)
}

// GetPopular returns the best rated visible items.
func (c *Client) GetPopular(ctx context.Context, n int) ([]Item, error) {
	return request[[]Item](ctx, c, http.MethodGet, fmt.Sprintf("/api/popular?n=%d", n), nil)
}
