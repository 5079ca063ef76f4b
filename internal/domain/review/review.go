package review

import (
	"crypto/md5" //nolint:gosec // identifiers must match ones already stored by earlier loads
	"encoding/hex"
	"strconv"
	"strings"
)

// Source column and metadata field names.
const (
	FieldID          = "Id"
	FieldTitle       = "Title"
	FieldPrice       = "Price"
	FieldUserID      = "User_id"
	FieldProfileName = "profileName"
	FieldHelpfulness = "review/helpfulness"
	FieldScore       = "review/score"
	FieldTime        = "review/time"
	FieldSummary     = "review/summary"
	FieldText        = "review/text"
)

// Record is one CSV row. Immutable once read.
type Record struct {
	ID          string
	Title       string
	Price       string
	UserID      string
	ProfileName string
	Helpfulness string
	Score       float64
	Time        int64
	Summary     string
	Text        string
}

// Metadata is the typed subset of a Record stored next to its vector.
// The review body is embedded but not stored.
type Metadata struct {
	ID          string
	Title       string
	Price       string
	UserID      string
	ProfileName string
	Helpfulness string
	Score       float64
	Time        int64
	Summary     string
}

// Document is a record prepared for embedding.
type Document struct {
	ID       string
	Text     string
	Metadata Metadata
}

// DeriveIdentifier returns the md5 hex digest of "<Id>-<User_id>-<review/time>".
// The same three values always produce the same identifier, so reloading a file
// overwrites instead of duplicating.
func DeriveIdentifier(r Record) string {
	sum := md5.Sum([]byte(r.ID + "-" + r.UserID + "-" + strconv.FormatInt(r.Time, 10))) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// BuildEmbeddableText joins summary and body with one space.
// The space is only added when both parts are non-empty.
func BuildEmbeddableText(r Record) string {
	switch {
	case r.Summary == "":
		return r.Text
	case r.Text == "":
		return r.Summary
	default:
		return r.Summary + " " + r.Text
	}
}

// NewDocument derives the identifier, text and metadata of a record.
func NewDocument(r Record) Document {
	return Document{
		ID:   DeriveIdentifier(r),
		Text: BuildEmbeddableText(r),
		Metadata: Metadata{
			ID:          r.ID,
			Title:       r.Title,
			Price:       r.Price,
			UserID:      r.UserID,
			ProfileName: r.ProfileName,
			Helpfulness: r.Helpfulness,
			Score:       r.Score,
			Time:        r.Time,
			Summary:     r.Summary,
		},
	}
}

// Fields flattens metadata into string fields keyed by source column name.
func (m Metadata) Fields() map[string]string {
	return map[string]string{
		FieldID:          m.ID,
		FieldTitle:       m.Title,
		FieldPrice:       m.Price,
		FieldUserID:      m.UserID,
		FieldProfileName: m.ProfileName,
		FieldHelpfulness: m.Helpfulness,
		FieldScore:       strconv.FormatFloat(m.Score, 'f', -1, 64),
		FieldTime:        strconv.FormatInt(m.Time, 10),
		FieldSummary:     m.Summary,
	}
}

// TagFields lists the metadata fields indexed for exact matching.
func TagFields() []string {
	return []string{FieldID, FieldTitle, FieldPrice, FieldUserID, FieldProfileName, FieldHelpfulness}
}

// NumericFields lists the metadata fields indexed for range queries.
func NumericFields() []string {
	return []string{FieldScore, FieldTime}
}

// MetadataFields lists every stored metadata field.
func MetadataFields() []string {
	out := append(TagFields(), NumericFields()...)
	return append(out, FieldSummary)
}

// Alias returns the query-safe name of a field: "review/score" becomes "review_score".
func Alias(field string) string {
	return strings.ReplaceAll(field, "/", "_")
}
