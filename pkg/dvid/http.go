package dvid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	cerrors "github.com/janelia-flyem/cleave/pkg/errors"
	"github.com/janelia-flyem/cleave/pkg/graph"
	"github.com/janelia-flyem/cleave/pkg/observability"
)

// HTTPClient talks to a DVID server over its REST API. Body membership,
// point lookups, and cleave write-back use the labelmap instance endpoints;
// the edge list comes from the merge-graph endpoint populated alongside the
// agglomeration.
type HTTPClient struct {
	baseURL  string
	uuid     string
	instance string
	http     *http.Client
	attempts int
	delay    time.Duration
}

// Config configures the DVID HTTP client.
type Config struct {
	// Server is the DVID server base URL, e.g. "http://emdata4:8900".
	Server string
	// UUID is the DVID node (version) to read from and write to.
	UUID string
	// Instance is the labelmap instance name, e.g. "segmentation".
	Instance string
	// Timeout bounds each HTTP request. Defaults to 60s.
	Timeout time.Duration
	// Attempts is the retry budget for transient failures. Defaults to 3.
	Attempts int
}

// NewHTTPClient creates a DVID client for one server/node/instance triple.
func NewHTTPClient(cfg Config) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	return &HTTPClient{
		baseURL:  cfg.Server,
		uuid:     cfg.UUID,
		instance: cfg.Instance,
		http:     &http.Client{Timeout: cfg.Timeout},
		attempts: cfg.Attempts,
		delay:    500 * time.Millisecond,
	}
}

// FetchBodyMembers returns the supervoxel IDs currently composing body.
func (c *HTTPClient) FetchBodyMembers(ctx context.Context, body graph.BodyID) ([]graph.SupervoxelID, error) {
	var members []graph.SupervoxelID
	url := fmt.Sprintf("%s/api/node/%s/%s/supervoxels/%d", c.baseURL, c.uuid, c.instance, body)
	if err := c.get(ctx, "supervoxels", url, &members, body); err != nil {
		return nil, err
	}
	return members, nil
}

// FetchBodyEdges returns the weighted edge list for body's supervoxels.
func (c *HTTPClient) FetchBodyEdges(ctx context.Context, body graph.BodyID) ([]graph.Edge, error) {
	var rows []edgeResponse
	url := fmt.Sprintf("%s/api/node/%s/%s/edges/%d", c.baseURL, c.uuid, c.instance, body)
	if err := c.get(ctx, "edges", url, &rows, body); err != nil {
		return nil, err
	}
	edges := make([]graph.Edge, len(rows))
	for i, r := range rows {
		edges[i] = graph.Edge{A: r.ID1, B: r.ID2, Weight: r.Weight}
	}
	return edges, nil
}

// FetchBodyMutationID returns the body's current mutation ID.
func (c *HTTPClient) FetchBodyMutationID(ctx context.Context, body graph.BodyID) (uint64, error) {
	var data lastModResponse
	url := fmt.Sprintf("%s/api/node/%s/%s/lastmod/%d", c.baseURL, c.uuid, c.instance, body)
	if err := c.get(ctx, "lastmod", url, &data, body); err != nil {
		return 0, err
	}
	return data.MutationID, nil
}

// FetchSupervoxelAt returns the supervoxel under the given voxel coordinate.
func (c *HTTPClient) FetchSupervoxelAt(ctx context.Context, p graph.Point) (graph.SupervoxelID, error) {
	var data labelResponse
	url := fmt.Sprintf("%s/api/node/%s/%s/label/%d_%d_%d?supervoxels=true",
		c.baseURL, c.uuid, c.instance, p[0], p[1], p[2])
	if err := c.get(ctx, "label", url, &data, 0); err != nil {
		return 0, err
	}
	return data.Label, nil
}

// WriteCleave splits the listed supervoxels out of body into a new body and
// returns the new body's ID.
func (c *HTTPClient) WriteCleave(ctx context.Context, body graph.BodyID, supervoxels []graph.SupervoxelID) (graph.BodyID, error) {
	payload, err := json.Marshal(supervoxels)
	if err != nil {
		return 0, cerrors.Wrap(cerrors.ErrCodeInternal, err, "encode cleave payload")
	}

	var data cleaveResponse
	url := fmt.Sprintf("%s/api/node/%s/%s/cleave/%d", c.baseURL, c.uuid, c.instance, body)
	if err := c.do(ctx, "cleave", http.MethodPost, url, payload, &data, body); err != nil {
		return 0, err
	}
	return data.CleavedLabel, nil
}

// get performs a GET request with retries and decodes the JSON response.
func (c *HTTPClient) get(ctx context.Context, endpoint, url string, v any, body graph.BodyID) error {
	return c.do(ctx, endpoint, http.MethodGet, url, nil, v, body)
}

func (c *HTTPClient) do(ctx context.Context, endpoint, method, url string, payload []byte, v any, body graph.BodyID) error {
	start := time.Now()
	err := Retry(ctx, c.attempts, c.delay, func() error {
		return c.once(ctx, method, url, payload, v)
	})
	observability.Store().OnRequest(ctx, endpoint, time.Since(start), err)

	if err == nil {
		return nil
	}
	var status *statusError
	if errors.As(err, &status) && status.code == http.StatusNotFound {
		return cerrors.Wrap(cerrors.ErrCodeBodyNotFound, err, "%s for body %d", endpoint, body)
	}
	return cerrors.Wrap(cerrors.ErrCodeStoreUnavailable, err, "dvid %s", endpoint)
}

func (c *HTTPClient) once(ctx context.Context, method, url string, payload []byte, v any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Network errors are transient until proven otherwise.
		return &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if v == nil {
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(v)
	case resp.StatusCode >= 500:
		return &RetryableError{Err: &statusError{code: resp.StatusCode, url: url}}
	default:
		return &statusError{code: resp.StatusCode, url: url}
	}
}

// statusError records a non-2xx HTTP response.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("dvid returned %d for %s", e.code, e.url)
}

// DVID response shapes.

type edgeResponse struct {
	ID1    graph.SupervoxelID `json:"id1"`
	ID2    graph.SupervoxelID `json:"id2"`
	Weight float64            `json:"weight"`
}

type lastModResponse struct {
	MutationID uint64 `json:"mutation id"`
}

type labelResponse struct {
	Label graph.SupervoxelID `json:"Label"`
}

type cleaveResponse struct {
	CleavedLabel graph.BodyID `json:"CleavedLabel"`
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
