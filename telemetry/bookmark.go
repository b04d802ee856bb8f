package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNewRecord       BookmarkType = "new_record"
	BookmarkMeanBreakthrough BookmarkType = "mean_breakthrough"
	BookmarkCollapse        BookmarkType = "collapse"
	BookmarkStagnation      BookmarkType = "stagnation"
	BookmarkConvergence     BookmarkType = "convergence"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Generation  int          `csv:"generation"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting generations in a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	record          float64 // best fitness seen so far
	hasRecord       bool
	recentMeanPeak  float64 // peak recent mean since the last collapse
	sinceRecord     int     // generations since the record last moved
	convergedStreak int     // consecutive generations with low spread
}

// NewBookmarkDetector creates a detector with the given history size. The
// history size is also the stagnation threshold in generations.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for convergence detection
	}
	return &BookmarkDetector{
		history:     make([]GenerationStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats GenerationStats) []Bookmark {
	var bookmarks []Bookmark

	// New record: best fitness beats the previous record by more than 5%
	if b := bd.checkNewRecord(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		// Mean breakthrough: recent mean > 2x rolling average
		if b := bd.checkMeanBreakthrough(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Collapse: recent mean dropped >50% from its peak
		if b := bd.checkCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Convergence: low fitness spread for 5 generations
		if b := bd.checkConvergence(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	// Stagnation: the record has not moved for historySize generations
	if b := bd.checkStagnation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	if stats.RecentMean > bd.recentMeanPeak {
		bd.recentMeanPeak = stats.RecentMean
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats GenerationStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []GenerationStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkNewRecord(stats GenerationStats) *Bookmark {
	if !bd.hasRecord {
		bd.record = stats.Best
		bd.hasRecord = true
		return nil
	}
	if stats.Best <= bd.record {
		bd.sinceRecord++
		return nil
	}

	old := bd.record
	bd.record = stats.Best
	bd.sinceRecord = 0
	if old > 0 && stats.Best < old*1.05 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkNewRecord,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("Strand %d reached %.3f (previous record %.3f)", stats.BestStrand, stats.Best, old),
	}
}

func (bd *BookmarkDetector) checkMeanBreakthrough(stats GenerationStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.RecentMean
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.RecentMean > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkMeanBreakthrough,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Mean fitness %.3f is %.1fx average (%.3f)", stats.RecentMean, stats.RecentMean/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkCollapse(stats GenerationStats) *Bookmark {
	if bd.recentMeanPeak <= 0 {
		return nil
	}

	drop := 1.0 - stats.RecentMean/bd.recentMeanPeak
	if drop > 0.5 {
		// Reset peak after collapse
		oldPeak := bd.recentMeanPeak
		bd.recentMeanPeak = stats.RecentMean

		return &Bookmark{
			Type:        BookmarkCollapse,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Mean fitness fell %.0f%% from peak %.3f to %.3f", drop*100, oldPeak, stats.RecentMean),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStagnation(stats GenerationStats) *Bookmark {
	if bd.sinceRecord != bd.historySize { // trigger once per plateau
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStagnation,
		Generation:  stats.Generation,
		Description: fmt.Sprintf("No improvement on record %.3f for %d generations", bd.record, bd.sinceRecord),
	}
}

func (bd *BookmarkDetector) checkConvergence(stats GenerationStats) *Bookmark {
	if stats.RecentMean <= 0 {
		bd.convergedStreak = 0
		return nil
	}

	// Coefficient of variation below 5%
	if stats.FitnessStd/stats.RecentMean < 0.05 {
		bd.convergedStreak++
	} else {
		bd.convergedStreak = 0
	}

	if bd.convergedStreak == 5 { // trigger exactly once at 5 generations
		return &Bookmark{
			Type:        BookmarkConvergence,
			Generation:  stats.Generation,
			Description: fmt.Sprintf("Population converged at mean %.3f (std %.4f) over 5 generations", stats.RecentMean, stats.FitnessStd),
		}
	}
	return nil
}
