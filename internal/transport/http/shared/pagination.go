package shared

import (
	"fmt"
	"net/http"
	"strconv"

	"milestonenotifier/internal/transport/http/api"
)

// Page is a limit/offset window over a list endpoint.
type Page struct {
	Limit  int
	Offset int
}

// Pagination reads limit and offset from the query string. Values that are not
// integers in range are recorded as issues; limit is clamped to maxLimit.
func (v *Validator) Pagination(r *http.Request, defaultLimit, maxLimit int) Page {
	query := r.URL.Query()
	page := Page{Limit: defaultLimit}
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			v.Add("limit", "must be a positive integer")
		} else {
			page.Limit = n
		}
	}
	if raw := query.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			v.Add("offset", "must be zero or a positive integer")
		} else {
			page.Offset = n
		}
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page
}

// Next is the page following p, if total leaves anything after it.
func (p Page) Next(total int) (Page, bool) {
	if p.Offset+p.Limit >= total {
		return Page{}, false
	}
	return Page{Limit: p.Limit, Offset: p.Offset + p.Limit}, true
}

// WriteHeaders sets X-Total-Count and, when more rows follow, a rel="next"
// Link to them that keeps the caller's other query parameters.
func (p Page) WriteHeaders(w http.ResponseWriter, r *http.Request, total int) {
	api.SetTotalCount(w, total)
	next, ok := p.Next(total)
	if !ok {
		return
	}
	u := *r.URL
	query := u.Query()
	query.Set("limit", strconv.Itoa(next.Limit))
	query.Set("offset", strconv.Itoa(next.Offset))
	u.RawQuery = query.Encode()
	w.Header().Set("Link", fmt.Sprintf("<%s>; rel=\"next\"", u.RequestURI()))
}
