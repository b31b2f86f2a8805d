package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/spektr-org/canvas/engine"
)

// ============================================================================
// HTTP CLIENT — Remote query service
// ============================================================================
// POST {base}/query          {"descriptor": ..., "query": "..."}
//   200 {"columns": [...], "data": [{...}], "query": "..."}
//   4xx/5xx {"message": "...", "query": "..."}
// GET  {base}/distinct?table=&column=&search=
//   200 {"values": [...]}
// ============================================================================

// Client talks to a remote query service.
type Client struct {
	base string
	http *http.Client
	opts options
}

// NewClient builds a client rooted at baseURL. A nil hc uses a client with
// a 30 second timeout.
func NewClient(baseURL string, hc *http.Client, opts ...Option) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc, opts: applyOptions(opts)}
}

type fetchRequest struct {
	Descriptor engine.Descriptor `json:"descriptor"`
	Query      string            `json:"query"`
}

// Fetch posts d to the service.
func (c *Client) Fetch(ctx context.Context, d engine.Descriptor) (Result, error) {
	sql := Render(d)
	body, err := json.Marshal(fetchRequest{Descriptor: d, Query: sql})
	if err != nil {
		return Result{}, &QueryServiceError{Query: sql, Message: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/query", bytes.NewReader(body))
	if err != nil {
		return Result{}, &QueryServiceError{Query: sql, Message: "build request", Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	raw, status, err := c.do(req)
	if err != nil {
		return Result{}, &QueryServiceError{Query: sql, Message: "request", Err: err}
	}

	if q := gjson.GetBytes(raw, "query"); q.Exists() {
		sql = q.String()
	}
	if status >= http.StatusBadRequest {
		msg := gjson.GetBytes(raw, "message").String()
		if msg == "" {
			msg = http.StatusText(status)
		}
		c.opts.logger.Warn("query service error", "request", reqID, "status", status, "message", msg)
		return Result{}, &QueryServiceError{Query: sql, Message: msg}
	}
	if !gjson.ValidBytes(raw) {
		return Result{}, &QueryServiceError{Query: sql, Message: "malformed response"}
	}

	res := Result{Query: sql}
	for _, col := range gjson.GetBytes(raw, "columns").Array() {
		res.Keys = append(res.Keys, col.String())
	}
	gjson.GetBytes(raw, "data").ForEach(func(_, row gjson.Result) bool {
		if m, ok := row.Value().(map[string]any); ok {
			res.Rows = append(res.Rows, engine.RecordFromMap(m))
		}
		return true
	})
	if len(res.Keys) == 0 {
		res.Keys = engine.NewSliceView(res.Rows).Keys()
	}

	c.opts.logger.Debug("query fetched", "request", reqID, "rows", len(res.Rows))
	return res, nil
}

// Distinct asks the service for the distinct values of table.column.
func (c *Client) Distinct(ctx context.Context, table, column, search string) ([]string, error) {
	q := url.Values{}
	q.Set("table", table)
	q.Set("column", column)
	if search != "" {
		q.Set("search", search)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/distinct?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	raw, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest {
		return nil, fmt.Errorf("distinct values: %s", gjson.GetBytes(raw, "message").String())
	}

	var out []string
	for _, v := range gjson.GetBytes(raw, "values").Array() {
		if v.Type == gjson.Null {
			out = append(out, "")
			continue
		}
		out = append(out, v.String())
		if len(out) == c.opts.distinctLimit {
			break
		}
	}
	return out, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return raw, resp.StatusCode, nil
}
