package summarize

import (
	"reflect"
	"testing"
)

func TestExtractKeywordsFrequencyOrder(t *testing.T) {
	text := "budget budget budget roadmap roadmap launch"
	got := ExtractKeywords(text, 3)
	want := []string{"budget", "roadmap", "launch"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractKeywordsFiltersStopWordsAndShortTokens(t *testing.T) {
	got := ExtractKeywords("the and is to of it ok hi budget", 8)
	want := []string{"budget"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractKeywordsStripsPunctuationAndCase(t *testing.T) {
	got := ExtractKeywords("Budget! BUDGET? (budget)", 2)
	want := []string{"budget"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractKeywordsEmpty(t *testing.T) {
	got := ExtractKeywords("   ", 5)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

func TestExtractKeywordsCapped(t *testing.T) {
	got := ExtractKeywords("alpha beta gamma delta epsilon", 2)
	if len(got) != 2 {
		t.Errorf("got %d keywords, want 2", len(got))
	}
}
