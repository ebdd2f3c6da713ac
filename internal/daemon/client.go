package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"devdeck/internal/ports"
	"devdeck/internal/supervisor"
)

// baseURL is a placeholder host; the transport always dials the UNIX socket.
const baseURL = "http://devdeck"

// Client talks JSON to the daemon over its UNIX socket.
type Client struct {
	hc *http.Client
}

// NewClient builds a client over the given transport. Production code goes
// through Dial; tests substitute a fake RoundTripper.
func NewClient(transport http.RoundTripper) *Client {
	return &Client{hc: &http.Client{Transport: transport}}
}

// Dial verifies the daemon socket accepts connections and returns a client
// bound to it.
func Dial(ctx context.Context) (*Client, error) {
	path := SocketPath()
	var d net.Dialer
	probe, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial daemon socket %s: %w", path, err)
	}
	probe.Close()
	return NewClient(&http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", path)
		},
	}), nil
}

// Close releases idle connections held against the socket.
func (c *Client) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

func (c *Client) Ping(ctx context.Context) (string, error) {
	var resp pingResponse
	if err := c.get(ctx, "/v1/ping", &resp); err != nil {
		return "", err
	}
	return resp.Ok, nil
}

func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var resp DaemonStatus
	err := c.get(ctx, "/v1/status", &resp)
	return resp, err
}

func (c *Client) Apps(ctx context.Context) ([]AppInfo, error) {
	var resp appsResponse
	if err := c.get(ctx, "/v1/apps", &resp); err != nil {
		return nil, err
	}
	return resp.Apps, nil
}

func (c *Client) EnsureDevServer(ctx context.Context, app string) (supervisor.DevServerStatus, error) {
	var resp supervisor.DevServerStatus
	err := c.post(ctx, "/v1/dev/ensure", appRequest{App: app}, &resp)
	return resp, err
}

func (c *Client) StopDevServer(ctx context.Context, app string) error {
	return c.post(ctx, "/v1/dev/stop", appRequest{App: app}, nil)
}

func (c *Client) ListDevServers(ctx context.Context) ([]supervisor.DevServerStatus, error) {
	var resp devListResponse
	if err := c.get(ctx, "/v1/dev", &resp); err != nil {
		return nil, err
	}
	return resp.Servers, nil
}

func (c *Client) DevServerOutput(ctx context.Context, app string) ([]string, error) {
	var resp outputResponse
	if err := c.get(ctx, "/v1/dev/output?app="+url.QueryEscape(app), &resp); err != nil {
		return nil, err
	}
	return resp.Lines, nil
}

func (c *Client) RunTest(ctx context.Context, app string) (supervisor.TestRunStatus, error) {
	var resp supervisor.TestRunStatus
	err := c.post(ctx, "/v1/test/run", appRequest{App: app}, &resp)
	return resp, err
}

func (c *Client) StopTest(ctx context.Context, app string) error {
	return c.post(ctx, "/v1/test/stop", appRequest{App: app}, nil)
}

func (c *Client) ListTestRuns(ctx context.Context) ([]supervisor.TestRunStatus, error) {
	var resp testListResponse
	if err := c.get(ctx, "/v1/test", &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

func (c *Client) TestRunOutput(ctx context.Context, app string) ([]string, error) {
	var resp outputResponse
	if err := c.get(ctx, "/v1/test/output?app="+url.QueryEscape(app), &resp); err != nil {
		return nil, err
	}
	return resp.Lines, nil
}

func (c *Client) OpenInspector(ctx context.Context) (bool, error) {
	var resp inspectorResponse
	err := c.post(ctx, "/v1/inspector/open", struct{}{}, &resp)
	return resp.Open, err
}

func (c *Client) CloseInspector(ctx context.Context) (bool, error) {
	var resp inspectorResponse
	err := c.post(ctx, "/v1/inspector/close", struct{}{}, &resp)
	return resp.Open, err
}

func (c *Client) InspectorState(ctx context.Context) (bool, error) {
	var resp inspectorResponse
	err := c.get(ctx, "/v1/inspector", &resp)
	return resp.Open, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiError carries the daemon's message while unwrapping to the local
// sentinel, so errors.Is works on both sides of the socket.
type apiError struct {
	sentinel error
	message  string
}

func (e *apiError) Error() string { return e.message }
func (e *apiError) Unwrap() error { return e.sentinel }

func decodeError(resp *http.Response) error {
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Error.Code == "" {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	switch er.Error.Code {
	case codeUnknownApp:
		return &apiError{sentinel: supervisor.ErrUnknownApp, message: er.Error.Message}
	case codeResourceExhausted:
		return &apiError{sentinel: ports.ErrExhausted, message: er.Error.Message}
	case codeSpawnFailed:
		return &apiError{sentinel: supervisor.ErrSpawnFailed, message: er.Error.Message}
	default:
		return errors.New(er.Error.Message)
	}
}
