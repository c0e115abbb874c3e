package mediawiki

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Continuation is the opaque pagination cursor returned under "continue".
// It is passed back verbatim on the next request of the same sequence.
type Continuation map[string]string

// Response is the decoded API envelope around an endpoint-specific query payload.
type Response[T any] struct {
	// Continue is nil when no further pages remain.
	Continue      Continuation
	BatchComplete bool
	Query         T
}

// APIError is the "error" object MediaWiki returns instead of a query result.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Info)
}

// envelope mirrors the wire shape before the query payload is decoded.
type envelope struct {
	Continue      Continuation    `json:"continue"`
	BatchComplete json.RawMessage `json:"batchcomplete"`
	Query         json.RawMessage `json:"query"`
	Error         *APIError       `json:"error"`
}

// batchComplete accepts both the legacy "" marker and the boolean form.
func batchComplete(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null")) && !bytes.Equal(raw, []byte("false"))
}

// CategoryMember is a single entry of a category listing. NS=14 for subcategories, NS=0 for articles.
type CategoryMember struct {
	PageID int    `json:"pageid"`
	NS     int    `json:"ns"`
	Title  string `json:"title"`
}

// CategoryPage is one page of a list=categorymembers query.
type CategoryPage struct {
	CategoryMembers []CategoryMember `json:"categorymembers"`
}

// Titles returns the member titles in server order.
func (p CategoryPage) Titles() []string {
	titles := make([]string, 0, len(p.CategoryMembers))
	for _, m := range p.CategoryMembers {
		titles = append(titles, m.Title)
	}
	return titles
}

// PageContentSet maps the server's page key (title or numeric page id) to the raw page payload.
type PageContentSet map[string]json.RawMessage

type contentQuery struct {
	Pages PageContentSet `json:"pages"`
}
