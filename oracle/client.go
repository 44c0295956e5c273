package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sdboyer/constext"

	"github.com/aedificium/roomsolve/internal/errs"
	"github.com/aedificium/roomsolve/roomgraph"
)

// requestTimeout bounds a single HTTP round trip to the oracle; it is
// merged with the caller's context rather than replacing it, so a caller
// cancellation still propagates.
const requestTimeout = 30 * time.Second

// Client is the HTTP implementation of Oracle. It is intentionally
// stateless aside from the session implied by Select, per spec.md §4.1.
type Client struct {
	BaseURL string
	ID      string
	HTTP    *http.Client
}

// NewClient builds a Client with a default *http.Client if hc is nil.
func NewClient(baseURL, id string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), ID: id, HTTP: hc}
}

var _ Oracle = (*Client)(nil)

type selectRequest struct {
	ID          string `json:"id"`
	ProblemName string `json:"problemName"`
}

type selectResponse struct {
	ProblemName string `json:"problemName"`
}

func (c *Client) Select(ctx context.Context, problemName string) error {
	var resp selectResponse
	return c.post(ctx, "/select", selectRequest{ID: c.ID, ProblemName: problemName}, &resp)
}

type exploreRequest struct {
	ID    string   `json:"id"`
	Plans []string `json:"plans"`
}

type exploreResponse struct {
	Results    [][]int `json:"results"`
	QueryCount int     `json:"queryCount"`
}

func (c *Client) Explore(ctx context.Context, plans []roomgraph.Plan) ([]roomgraph.Trace, int, error) {
	req := exploreRequest{ID: c.ID, Plans: roomgraph.PlanStrings(plans)}
	var resp exploreResponse
	if err := c.post(ctx, "/explore", req, &resp); err != nil {
		return nil, 0, err
	}
	if len(resp.Results) != len(plans) {
		return nil, 0, errs.Protocol("explore: got %d results for %d plans", len(resp.Results), len(plans))
	}

	traces := make([]roomgraph.Trace, len(resp.Results))
	for i, r := range resp.Results {
		if len(r) != len(plans[i])+1 {
			return nil, 0, errs.Protocol("explore: plan %d trace has length %d, want %d", i, len(r), len(plans[i])+1)
		}
		traces[i] = roomgraph.Trace(r)
	}
	return traces, resp.QueryCount, nil
}

type guessRequest struct {
	ID  string     `json:"id"`
	Map guessGraph `json:"map"`
}

type guessGraph struct {
	Rooms        []int             `json:"rooms"`
	StartingRoom int               `json:"startingRoom"`
	Connections  []guessConnection `json:"connections"`
}

type guessConnection struct {
	From guessRoomDoor `json:"from"`
	To   guessRoomDoor `json:"to"`
}

type guessRoomDoor struct {
	Room int `json:"room"`
	Door int `json:"door"`
}

type guessResponse struct {
	Correct bool `json:"correct"`
}

func (c *Client) Guess(ctx context.Context, candidate roomgraph.Candidate) (bool, error) {
	conns, err := roomgraph.PairDoors(candidate.Doors)
	if err != nil {
		return false, errs.Internal("building door pairing for guess: %s", err)
	}

	gconns := make([]guessConnection, len(conns))
	for i, c := range conns {
		gconns[i] = guessConnection{
			From: guessRoomDoor{Room: c.From.Room, Door: c.From.Door},
			To:   guessRoomDoor{Room: c.To.Room, Door: c.To.Door},
		}
	}

	req := guessRequest{
		ID: c.ID,
		Map: guessGraph{
			Rooms:        candidate.Rooms,
			StartingRoom: candidate.StartingRoom,
			Connections:  gconns,
		},
	}

	var resp guessResponse
	if err := c.post(ctx, "/guess", req, &resp); err != nil {
		return false, err
	}
	return resp.Correct, nil
}

// post issues one JSON POST request against the oracle, merging ctx with
// an internal request-scoped timeout the way the teacher's deducers.go
// merges an inbound and an internally-derived context via
// constext.Cons.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	tctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	mergedCtx, cancelMerge := constext.Cons(ctx, tctx)
	defer cancelMerge()

	payload, err := json.Marshal(body)
	if err != nil {
		return errs.Internal("encoding request to %s: %s", path, err)
	}

	httpReq, err := http.NewRequestWithContext(mergedCtx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errs.Transport(err, "building request to "+path)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return errs.Transport(err, "sending request to "+path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Transport(err, "reading response from "+path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.Protocol("%s: oracle returned status %d: %s", path, resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return errs.Protocol("%s: decoding response: %s (body: %s)", path, err, string(data))
		}
	}
	return nil
}
