package api

import (
	"encoding/json"
	"fmt"

	"github.com/tidemarkhq/tidemark-go/pkg/document"
)

// Response is the pagination envelope of one search request. Immutable,
// one per query execution.
type Response struct {
	Page             int    `json:"page"`
	ResultsPerPage   int    `json:"results_per_page"`
	ResultsSize      int    `json:"results_size"`
	TotalResultsSize int    `json:"total_results_size"`
	TotalPages       int    `json:"total_pages"`
	NextPage         string `json:"next_page"`
	PrevPage         string `json:"prev_page"`

	Results []*document.Document `json:"-"`
}

// ParseResponse decodes a search response body, mapping each result row
// through the document parser.
func ParseResponse(raw json.RawMessage) (*Response, error) {
	var wire struct {
		Response
		Results []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	resp := wire.Response
	resp.Results = make([]*document.Document, 0, len(wire.Results))
	for i, row := range wire.Results {
		doc, err := document.Parse(row)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		resp.Results = append(resp.Results, doc)
	}
	return &resp, nil
}

// HasNext reports whether a further page exists.
func (r *Response) HasNext() bool { return r.NextPage != "" }
