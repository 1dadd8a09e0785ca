package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gammadia/furnace/api"
)

// errStackNotFound is how the client surfaces a 404 on a stack endpoint, so
// callers like the delete watcher can tell "gone" from a real failure.
var errStackNotFound = errors.New("stack not found")

type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(remote string) *apiClient {
	return &apiClient{
		base: "http://" + remote,
		http: http.DefaultClient,
	}
}

func (c *apiClient) call(ctx context.Context, method, path string, body any, out any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+"/v1"+path, &payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		if resp.StatusCode == http.StatusNotFound {
			return errStackNotFound
		}
		var apiError api.Error
		if err := json.NewDecoder(resp.Body).Decode(&apiError); err == nil && apiError.Error != "" {
			return errors.New(apiError.Error)
		}
		return fmt.Errorf("server returned HTTP %d", resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *apiClient) Status(ctx context.Context) (api.StatusResponse, error) {
	var status api.StatusResponse
	err := c.call(ctx, http.MethodGet, "/status", nil, &status)
	return status, err
}

func (c *apiClient) ListStacks(ctx context.Context) ([]api.Stack, error) {
	var stacks []api.Stack
	err := c.call(ctx, http.MethodGet, "/stacks", nil, &stacks)
	return stacks, err
}

func (c *apiClient) GetStack(ctx context.Context, name string) (*api.Stack, error) {
	var stack api.Stack
	if err := c.call(ctx, http.MethodGet, "/stacks/"+name, nil, &stack); err != nil {
		return nil, err
	}
	return &stack, nil
}

func (c *apiClient) StackEvents(ctx context.Context, name string) ([]api.Event, error) {
	var events []api.Event
	err := c.call(ctx, http.MethodGet, "/stacks/"+name+"/events", nil, &events)
	return events, err
}

func (c *apiClient) CreateStack(ctx context.Context, req api.CreateStackRequest) (*api.Stack, error) {
	var stack api.Stack
	if err := c.call(ctx, http.MethodPost, "/stacks", req, &stack); err != nil {
		return nil, err
	}
	return &stack, nil
}

func (c *apiClient) UpdateStack(ctx context.Context, name string, req api.UpdateStackRequest) (*api.Stack, error) {
	var stack api.Stack
	if err := c.call(ctx, http.MethodPost, "/stacks/"+name, req, &stack); err != nil {
		return nil, err
	}
	return &stack, nil
}

func (c *apiClient) DeleteStack(ctx context.Context, name string) error {
	return c.call(ctx, http.MethodDelete, "/stacks/"+name, nil, nil)
}

func (c *apiClient) Validate(ctx context.Context, req api.ValidateRequest) (api.ValidateResponse, error) {
	var response api.ValidateResponse
	err := c.call(ctx, http.MethodPost, "/validate", req, &response)
	return response, err
}
