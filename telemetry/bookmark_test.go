package telemetry

import (
	"testing"
)

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_NewRecord(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// First generation only establishes the record
	if got := bd.Check(GenerationStats{Generation: 0, Best: 1}); hasBookmark(got, BookmarkNewRecord) {
		t.Error("first generation should not trigger new_record")
	}

	if got := bd.Check(GenerationStats{Generation: 1, Best: 2, BestStrand: 3}); !hasBookmark(got, BookmarkNewRecord) {
		t.Error("expected new_record bookmark when best doubles")
	}

	// Marginal improvement moves the record silently
	if got := bd.Check(GenerationStats{Generation: 2, Best: 2.01}); hasBookmark(got, BookmarkNewRecord) {
		t.Error("1% improvement should not trigger new_record")
	}
}

func TestBookmarkDetector_MeanBreakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 4; i++ {
		bd.Check(GenerationStats{Generation: i, RecentMean: 1, FitnessStd: 1})
	}

	bookmarks := bd.Check(GenerationStats{Generation: 4, RecentMean: 3, FitnessStd: 1})
	if !hasBookmark(bookmarks, BookmarkMeanBreakthrough) {
		t.Error("expected mean_breakthrough bookmark")
	}
}

func TestBookmarkDetector_Collapse(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(GenerationStats{Generation: i, RecentMean: 10, FitnessStd: 5})
	}

	bookmarks := bd.Check(GenerationStats{Generation: 5, RecentMean: 4, FitnessStd: 5})
	if !hasBookmark(bookmarks, BookmarkCollapse) {
		t.Error("expected collapse bookmark")
	}

	// Peak was reset, so a repeat of the low mean is not a second collapse
	bookmarks = bd.Check(GenerationStats{Generation: 6, RecentMean: 4, FitnessStd: 5})
	if hasBookmark(bookmarks, BookmarkCollapse) {
		t.Error("collapse should not repeat at the new level")
	}
}

func TestBookmarkDetector_StagnationOnce(t *testing.T) {
	bd := NewBookmarkDetector(5)

	var triggered []int
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(GenerationStats{Generation: i, Best: 3, RecentMean: 1, FitnessStd: 1})
		if hasBookmark(bookmarks, BookmarkStagnation) {
			triggered = append(triggered, i)
		}
	}
	if len(triggered) != 1 || triggered[0] != 5 {
		t.Errorf("stagnation triggered at %v, want [5]", triggered)
	}
}

func TestBookmarkDetector_Convergence(t *testing.T) {
	bd := NewBookmarkDetector(10)

	var triggered []int
	for i := 0; i < 10; i++ {
		bookmarks := bd.Check(GenerationStats{Generation: i, RecentMean: 10, FitnessStd: 0.1})
		if hasBookmark(bookmarks, BookmarkConvergence) {
			triggered = append(triggered, i)
		}
	}
	// First generation has no history; streak reaches 5 at generation 5
	if len(triggered) != 1 || triggered[0] != 5 {
		t.Errorf("convergence triggered at %v, want [5]", triggered)
	}
}

func TestBookmarkDetector_NoConvergenceAtZero(t *testing.T) {
	bd := NewBookmarkDetector(5)

	for i := 0; i < 10; i++ {
		if hasBookmark(bd.Check(GenerationStats{Generation: i}), BookmarkConvergence) {
			t.Fatalf("all-zero population reported convergence at generation %d", i)
		}
	}
}
