// Package render prints query results to a console.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/reviewdex/internal/domain/review"
	"github.com/kailas-cloud/reviewdex/internal/domain/search/result"
)

const separatorWidth = 50

// Results writes a header and one block per match.
// A match missing Title, review/summary or review/score fails with *domain.MissingFieldError
// before anything of that match is written.
func Results(w io.Writer, description string, results []result.Result) error {
	header := "Search Results"
	if description != "" {
		header += " for " + description
	}
	if _, err := fmt.Fprintf(w, "\n%s\nFound %d matches\n", header, len(results)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range results {
		if err := match(w, &results[i]); err != nil {
			return err
		}
	}
	return nil
}

func match(w io.Writer, r *result.Result) error {
	title, err := r.Field(review.FieldTitle)
	if err != nil {
		return fmt.Errorf("render %s: %w", r.ID(), err)
	}
	summary, err := r.Field(review.FieldSummary)
	if err != nil {
		return fmt.Errorf("render %s: %w", r.ID(), err)
	}
	rating, err := r.Field(review.FieldScore)
	if err != nil {
		return fmt.Errorf("render %s: %w", r.ID(), err)
	}

	_, err = fmt.Fprintf(w, "Score: %.4f\nTitle: %s\nReview Summary: %s\nRating: %s\n%s\n",
		r.Score(), title, summary, formatRating(rating), strings.Repeat("-", separatorWidth))
	if err != nil {
		return fmt.Errorf("write match %s: %w", r.ID(), err)
	}
	return nil
}

// formatRating prints whole ratings with one decimal ("5.0") and keeps others as stored.
func formatRating(s string) string {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
