package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    RatingSummary
	}{
		{"empty set", nil, RatingSummary{Rating: 0, ReviewCount: 0}},
		{"single", []int{5}, RatingSummary{Rating: 5, ReviewCount: 1}},
		{"two", []int{5, 3}, RatingSummary{Rating: 4, ReviewCount: 2}},
		{"unrounded mean", []int{5, 4, 4}, RatingSummary{Rating: 13.0 / 3.0, ReviewCount: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.ratings))
		})
	}
}

func TestReviewPatch_Apply(t *testing.T) {
	review := &Review{Rating: 3, Comment: "ok"}

	rating := 5
	ReviewPatch{Rating: &rating}.Apply(review)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "ok", review.Comment)

	empty := ""
	ReviewPatch{Comment: &empty}.Apply(review)
	assert.Equal(t, "ok", review.Comment)

	comment := "lovely clasp"
	ReviewPatch{Comment: &comment}.Apply(review)
	assert.Equal(t, "lovely clasp", review.Comment)
	assert.Equal(t, 5, review.Rating)
}
