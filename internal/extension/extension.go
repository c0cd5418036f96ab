// Package extension registers an internal extension with the Lambda
// Extensions API. The sandbox only delivers SIGTERM to function processes
// that have a registered extension, so even a no-op registration earns the
// process a graceful shutdown.
package extension

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const apiVersion = "2020-01-01"

// Client talks to the Extensions API inside the sandbox.
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	Name       string

	id string
}

// NewClient returns a client for the runtime API endpoint, usually the
// value of AWS_LAMBDA_RUNTIME_API. Extension names must be unique within a
// function.
func NewClient(runtimeAPI, name string) (*Client, error) {

	u, err := url.Parse("http://" + runtimeAPI + "/" + apiVersion + "/extension/")
	if err != nil {
		return nil, fmt.Errorf("could not form extension URL: %v", err)
	}

	return &Client{
		BaseURL: u,
		// next-event polls block until the runtime has something to say
		HTTPClient: &http.Client{Timeout: 0},
		Name:       name,
	}, nil
}

// Event is a lifecycle event delivered by the runtime.
type Event struct {
	EventType          string `json:"eventType"`
	DeadlineMs         int64  `json:"deadlineMs"`
	RequestID          string `json:"requestId,omitempty"`
	InvokedFunctionArn string `json:"invokedFunctionArn,omitempty"`
	ShutdownReason     string `json:"shutdownReason,omitempty"`
}

// Register subscribes the extension to the given lifecycle events. An empty
// list is valid and keeps the extension out of the event loop entirely.
// Registration must complete before the runtime loop starts, which ends the
// init phase.
func (c *Client) Register(ctx context.Context, events []string) error {

	if events == nil {
		events = []string{}
	}

	body, err := json.Marshal(struct {
		Events []string `json:"events"`
	}{Events: events})
	if err != nil {
		return fmt.Errorf("could not marshal registration: %v", err)
	}

	u := c.BaseURL.ResolveReference(&url.URL{Path: "register"})
	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("could not make registration request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Lambda-Extension-Name", c.Name)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not call extensions API: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("registration failed with status %v: %s", res.StatusCode, msg)
	}

	c.id = res.Header.Get("Lambda-Extension-Identifier")
	if c.id == "" {
		return fmt.Errorf("registration response carries no extension identifier")
	}

	return nil
}

// ID returns the identifier assigned at registration.
func (c *Client) ID() string {
	return c.id
}

// Next blocks until the runtime delivers the next lifecycle event. Only
// extensions that subscribed to events at registration should poll.
func (c *Client) Next(ctx context.Context) (*Event, error) {

	if c.id == "" {
		return nil, fmt.Errorf("extension is not registered")
	}

	u := c.BaseURL.ResolveReference(&url.URL{Path: "event/next"})
	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not make event request: %v", err)
	}
	req.Header.Set("Lambda-Extension-Identifier", c.id)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not poll for events: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("event poll failed with status %v", res.StatusCode)
	}

	var ev Event
	if err := json.NewDecoder(res.Body).Decode(&ev); err != nil {
		return nil, fmt.Errorf("could not decode event: %v", err)
	}

	return &ev, nil
}
