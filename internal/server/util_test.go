package server

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []int64
		wantErr  bool
	}{
		{name: "Empty string", input: "", expected: nil},
		{name: "Single id", input: "7", expected: []int64{7}},
		{name: "Spaces and blanks", input: " 1, 2,,3 ", expected: []int64{1, 2, 3}},
		{name: "Not a number", input: "1,x", wantErr: true},
		{name: "Negative id", input: "-4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIDList(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseIDList(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("parseIDList(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPageParams(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 20, 0},
		{"?page=2", 20, 20},
		{"?page=3&limit=10", 10, 20},
		{"?page=0&limit=0", 20, 0},
		{"?page=-5&limit=abc", 20, 0},
		{"?limit=500", 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/api/articles"+tt.query, nil)
			limit, offset := pageParams(c)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("pageParams(%q) = %d, %d, want %d, %d", tt.query, limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	tests := map[string]string{
		"Failed to fetch article": "Article not found",
		"Failed to update note":   "Note not found",
		"Failed to update source": "Source not found",
		"Failed to fetch user":    "Not found",
	}
	for in, want := range tests {
		if got := notFoundMessage(in); got != want {
			t.Errorf("notFoundMessage(%q) = %q, want %q", in, got, want)
		}
	}
}
