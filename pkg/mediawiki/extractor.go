package mediawiki

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"snpedia/internal/models"
)

// ExtractPolicy decides what a batch extraction does with a page that has
// no content.
type ExtractPolicy int

const (
	// SkipInvalid drops pages without content and keeps the rest.
	SkipInvalid ExtractPolicy = iota
	// FailFast fails the whole batch on the first page without content.
	FailFast
)

func (p ExtractPolicy) String() string {
	switch p {
	case SkipInvalid:
		return "skip"
	case FailFast:
		return "fail-fast"
	default:
		return fmt.Sprintf("ExtractPolicy(%d)", int(p))
	}
}

// ParsePolicy accepts "skip" and "fail-fast".
func ParsePolicy(s string) (ExtractPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SkipInvalid, nil
	case "fail-fast", "failfast", "strict":
		return FailFast, nil
	default:
		return 0, fmt.Errorf("unknown extract policy %q", s)
	}
}

const contentPath = "revisions[0].slots.main.*"

// Each level of the content path is decoded on its own so that a malformed
// sibling field never hides content that is present.
type (
	pagePayload struct {
		Title     json.RawMessage `json:"title"`
		Revisions json.RawMessage `json:"revisions"`
	}
	revision struct {
		Timestamp json.RawMessage `json:"timestamp"`
		Slots     json.RawMessage `json:"slots"`
	}
	slots struct {
		Main json.RawMessage `json:"main"`
	}
	mainSlot struct {
		Content json.RawMessage `json:"*"`
	}
)

func absent(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// Extract reads revisions[0].slots.main["*"] from a page payload into a
// record named title.
func Extract(title string, raw json.RawMessage) (models.Record, error) {
	return extract(title, raw, false)
}

// extract names the record after the payload's own string "title" when
// ownTitle is set and the payload has one.
func extract(title string, raw json.RawMessage, ownTitle bool) (models.Record, error) {
	var p pagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Record{}, &ExtractionError{Title: title, Field: "revisions", Err: err}
	}

	var own string
	if ownTitle && json.Unmarshal(p.Title, &own) == nil && own != "" {
		title = own
	}
	fail := func(field string, err error) (models.Record, error) {
		return models.Record{}, &ExtractionError{Title: title, Field: field, Err: err}
	}

	if absent(p.Revisions) {
		return fail("revisions", nil)
	}
	var revs []json.RawMessage
	if err := json.Unmarshal(p.Revisions, &revs); err != nil {
		return fail("revisions", err)
	}
	if len(revs) == 0 || absent(revs[0]) {
		return fail("revisions[0]", nil)
	}

	var rev revision
	if err := json.Unmarshal(revs[0], &rev); err != nil {
		return fail("revisions[0]", err)
	}
	if absent(rev.Slots) {
		return fail("revisions[0].slots", nil)
	}
	var sl slots
	if err := json.Unmarshal(rev.Slots, &sl); err != nil {
		return fail("revisions[0].slots", err)
	}
	if absent(sl.Main) {
		return fail("revisions[0].slots.main", nil)
	}
	var ms mainSlot
	if err := json.Unmarshal(sl.Main, &ms); err != nil {
		return fail("revisions[0].slots.main", err)
	}
	if absent(ms.Content) {
		return fail(contentPath, nil)
	}
	var content string
	if err := json.Unmarshal(ms.Content, &content); err != nil {
		return fail(contentPath, err)
	}

	rec := models.Record{Name: title, Content: content}
	var stamp string
	if json.Unmarshal(rev.Timestamp, &stamp) == nil {
		if ts, err := time.Parse(time.RFC3339, stamp); err == nil {
			rec.Timestamp = ts
		}
	}
	return rec, nil
}

// Batch is the outcome of extracting a PageContentSet.
type Batch struct {
	Records []models.Record
	// Skipped holds the pages dropped under SkipInvalid.
	Skipped []*ExtractionError
}

// ExtractAll extracts every page of set in key order. A record is named after
// the page's own "title" when it has one, which covers sets keyed by page id,
// otherwise after its key. A title that is not a string is ignored. Under FailFast the first failure is returned and no records
// are kept.
func ExtractAll(set PageContentSet, policy ExtractPolicy) (Batch, error) {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b Batch
	for _, key := range keys {
		rec, err := extract(key, set[key], true)
		if err != nil {
			if policy == FailFast {
				return Batch{}, err
			}
			b.Skipped = append(b.Skipped, err.(*ExtractionError))
			continue
		}
		b.Records = append(b.Records, rec)
	}
	return b, nil
}
