package compiler

// Section is one named candidate content block for a single compilation.
// Sections are created fresh by the caller on every compilation; the
// compiler never persists them.
type Section struct {
	// Name uniquely identifies the section within one compilation and is
	// stable across compilations of the same logical source.
	Name string

	// Content is the opaque text payload.
	Content string

	// Priority is the caller-assigned static rank. Higher is more
	// important. The effective rank adds the learned attention weight.
	Priority int
}

// Report is the metadata emitted alongside the compiled payload.
type Report struct {
	// Budget is the total cost budget for this compilation.
	Budget int `json:"budget"`

	// CostUsed is the total cost consumed by the emitted payload.
	CostUsed int `json:"cost_used"`

	// Utilization is CostUsed as a percentage of Budget.
	Utilization float64 `json:"utilization"`

	// Truncated lists sections that were skeletonized or reduced to an
	// omission footer.
	Truncated []string `json:"truncated,omitempty"`

	// Dropped lists sections excluded entirely from the payload.
	Dropped []string `json:"dropped,omitempty"`

	// Changed, New, and Unchanged are the delta sets versus the previous
	// compilation, filled in by the delta detector.
	Changed   []string `json:"changed,omitempty"`
	New       []string `json:"new,omitempty"`
	Unchanged []string `json:"unchanged,omitempty"`
}
