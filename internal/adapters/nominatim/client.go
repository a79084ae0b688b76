package nominatim

import (
	"context"
	"net/url"
	"strconv"

	"routegen/internal/adapters/upstream"
)

// Client queries the Nominatim search endpoint for place suggestions.
type Client struct{ up *upstream.Client }

func New(up *upstream.Client) *Client { return &Client{up: up} }

type place struct {
	DisplayName string `json:"display_name"`
}

// Suggest returns up to limit display labels for q.
func (c *Client) Suggest(ctx context.Context, q string, limit int) ([]string, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", strconv.Itoa(limit))

	var res []place
	if err := c.up.GetJSON(ctx, "/search", params, &res); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(res))
	for _, p := range res {
		if p.DisplayName == "" {
			continue
		}
		out = append(out, p.DisplayName)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
