package domain

// Paper is one entry of a day's listing. The JSON field names are the durable
// contract of the stored daily documents; the web front reads them as-is.
type Paper struct {
	ID             string `json:"id"`
	URL            string `json:"url,omitempty"`
	Title          string `json:"title"`
	Authors        string `json:"authors"`
	Abstract       string `json:"abstract,omitempty"`
	SummaryJA      string `json:"summary_ja,omitempty"`
	ContributionJA string `json:"contribution_ja,omitempty"`
}

// Valid reports whether the paper carries the source identifier. Entries
// without one are kept by the scraper but dropped before persistence.
func (p Paper) Valid() bool {
	return p.ID != ""
}

// Favorite is a paper copied into a user's collection at save time. There is
// no back-reference to the daily document it came from.
type Favorite struct {
	Paper
	SavedAt string `json:"saved_at"`
}

// SectionCounts holds the per-section entry counts announced by the listing
// page headers. Transient; only used to bound harvesting.
type SectionCounts struct {
	New   int
	Cross int
}

// Total is the number of dt/dd pairs to harvest across all sections.
func (c SectionCounts) Total() int {
	return c.New + c.Cross
}
