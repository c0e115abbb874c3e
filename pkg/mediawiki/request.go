package mediawiki

import (
	"net/url"
	"strconv"
	"strings"
)

// Param is a single query-string parameter.
type Param struct {
	Key   string
	Value string
}

// Request is an immutable set of query parameters plus the continuation token
// of the pagination sequence it belongs to, if any.
type Request struct {
	params []Param
	cont   Continuation
}

// Query builds an action=query request in JSON format with the given
// endpoint-specific parameters.
func Query(params ...Param) Request {
	all := make([]Param, 0, len(params)+2)
	all = append(all, params...)
	all = append(all, Param{"action", "query"}, Param{"format", "json"})
	return Request{params: all}
}

// CategoryMembers lists the members of a category. A limit of zero leaves
// cmlimit to the server default.
func CategoryMembers(category string, limit int) Request {
	params := []Param{
		{"list", "categorymembers"},
		{"cmtitle", category},
	}
	if limit > 0 {
		params = append(params, Param{"cmlimit", strconv.Itoa(limit)})
	}
	return Query(params...)
}

// Revisions requests the main-slot content and timestamp of the latest
// revision of every title. Titles are joined with "|" as-is; a title that
// itself contains "|" cannot be requested.
func Revisions(titles []string) Request {
	return Query(
		Param{"prop", "revisions"},
		Param{"rvprop", "content|timestamp"},
		Param{"rvslots", "main"},
		Param{"titles", strings.Join(titles, "|")},
	)
}

// WithContinuation returns a copy of r carrying the given token. A nil token
// clears it.
func (r Request) WithContinuation(c Continuation) Request {
	next := Request{params: r.params}
	if c != nil {
		next.cont = make(Continuation, len(c))
		for k, v := range c {
			next.cont[k] = v
		}
	}
	return next
}

// Continuation returns the token the request carries, or nil.
func (r Request) Continuation() Continuation {
	return r.cont
}

// Get returns the value of a base parameter.
func (r Request) Get(key string) string {
	for _, p := range r.params {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Values returns the full query string: base parameters followed by the
// continuation parameters. Continuation keys override base keys.
func (r Request) Values() url.Values {
	v := url.Values{}
	for _, p := range r.params {
		v.Set(p.Key, p.Value)
	}
	for k, val := range r.cont {
		v.Set(k, val)
	}
	return v
}
