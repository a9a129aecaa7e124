package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Astemirdum/bookstore/bookstore/internal/errs"
)

type Book struct {
	ID            BookID `json:"itemId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	CoverSmallURL string `json:"coverSmallUrl"`
}

// BookID is the catalog identifier. The catalog sends it as a JSON number,
// some mirrors send it quoted.
type BookID string

func (id *BookID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = BookID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = BookID(n.String())
	return nil
}

func (id BookID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

// Int64 is the key a Review is stored under.
func (id BookID) Int64() (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(string(id)), 10, 64)
	if err != nil {
		return 0, errs.ErrInvalidBookID
	}
	return n, nil
}

// CatalogResponse is the shared shape of bestSeller.api and search.api.
type CatalogResponse struct {
	Title string `json:"title"`
	Items []Book `json:"item"`
}

type HistoryEntry struct {
	ID      *int64 `json:"id" db:"id"`
	Keyword string `json:"keyword" db:"keyword"`
}

type Review struct {
	ID     int64   `json:"id" db:"id"`
	Review *string `json:"review" db:"review"`
}

// Text returns the review body, empty when none was written.
func (r Review) Text() string {
	if r.Review == nil {
		return ""
	}
	return *r.Review
}

type SaveReviewRequest struct {
	Review string `json:"review" validate:"max=10000"`
}

type HistoryPolicy struct {
	Dedupe     bool `envconfig:"HISTORY_DEDUPE" default:"false"`
	MaxEntries int  `envconfig:"HISTORY_MAX_ENTRIES" default:"0"`
}
