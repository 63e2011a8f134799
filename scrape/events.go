// Package scrape orchestrates playlist and track downloads end to end.
package scrape

// TrackMeta is the per-track information surfaced to Events implementations.
type TrackMeta struct {
	Title       string
	Artists     string
	Album       string
	ReleaseDate string
	CoverURL    string
	File        string
}

// Summary reports the outcome of a scrape run.
type Summary struct {
	Succeeded    int
	Failed       int
	FailedTitles []string
}

// Events receives progress notifications during a scrape run. All methods
// are called from the scraping goroutine, in order.
type Events interface {
	TrackStarted(meta TrackMeta)
	TrackFinished(meta TrackMeta, alreadyExisted bool)
	Progress(percent int)
	Done(summary Summary)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) TrackStarted(TrackMeta)          {}
func (NopEvents) TrackFinished(TrackMeta, bool)   {}
func (NopEvents) Progress(int)                    {}
func (NopEvents) Done(Summary)                    {}
