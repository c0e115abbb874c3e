package models

import "time"

// Record is the extracted content of one wiki page.
type Record struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	// Timestamp of the revision the content was taken from. Zero when the
	// server did not report one.
	Timestamp time.Time `json:"timestamp,omitzero"`
}
