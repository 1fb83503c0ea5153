package client

import "context"

// Merge appends the rows of incoming whose id is not already in held, in
// order, and returns the grown slice
func Merge(held, incoming []Project) []Project {
	seen := make(map[int64]bool, len(held)+len(incoming))
	for _, p := range held {
		seen[p.ID] = true
	}
	merged, _ := mergeInto(held, seen, incoming)
	return merged
}

func mergeInto(held []Project, seen map[int64]bool, incoming []Project) ([]Project, int) {
	added := 0
	for _, p := range incoming {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		held = append(held, p)
		added++
	}
	return held, added
}

// Pager retrieves a search page by page and accumulates a duplicate-free
// result list. Each request starts at the number of rows already held, and
// paging ends once the held rows reach the total of the latest response.
// A Pager is not safe for concurrent use.
type Pager struct {
	client *Client
	req    SearchRequest

	held      []Project
	seen      map[int64]bool
	total     int
	fetched   bool
	exhausted bool
}

// NewPager creates a pager for req. req.Offset is ignored.
func NewPager(client *Client, req SearchRequest) *Pager {
	p := &Pager{client: client}
	p.Reset(req)
	return p
}

// Reset starts over with a new filter state. Held rows and the known total
// are discarded so a stale total is never compared against new pages.
func (p *Pager) Reset(req SearchRequest) {
	req.Offset = 0
	p.req = req
	p.held = nil
	p.seen = make(map[int64]bool)
	p.total = 0
	p.fetched = false
	p.exhausted = false
}

// Next fetches the following page and returns the rows it added.
// It returns nil once Done reports true.
func (p *Pager) Next(ctx context.Context) ([]Project, error) {
	if p.Done() {
		return nil, nil
	}

	req := p.req
	req.Offset = len(p.held)
	page, err := p.client.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	start := len(p.held)
	var added int
	p.held, added = mergeInto(p.held, p.seen, page.Rows)
	p.total = page.Total
	p.fetched = true
	// a page that adds nothing would be requested again at the same offset
	if added == 0 {
		p.exhausted = true
	}

	return p.held[start:], nil
}

// Done reports whether every row of the latest total is held, or the server
// stopped returning new rows
func (p *Pager) Done() bool {
	return p.fetched && (len(p.held) >= p.total || p.exhausted)
}

// Rows returns the rows held so far
func (p *Pager) Rows() []Project {
	return p.held
}

// Total returns the total reported by the latest response
func (p *Pager) Total() int {
	return p.total
}

// All pages until Done and returns every held row
func (p *Pager) All(ctx context.Context) ([]Project, error) {
	for !p.Done() {
		if _, err := p.Next(ctx); err != nil {
			return p.held, err
		}
	}
	return p.held, nil
}
