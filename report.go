package profiletree

// Report collects the diagnostics found in a profile.
type Report struct {
	Issues []Issue `json:"issues"`
}

// Add appends issues to the report.
func (r *Report) Add(issues ...Issue) {
	r.Issues = append(r.Issues, issues...)
}

// Merge appends all issues of other.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Issues = append(r.Issues, other.Issues...)
}

// HasErrors returns true if the report contains an error.
func (r *Report) HasErrors() bool {
	for i := range r.Issues {
		if r.Issues[i].IsError() {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of errors.
func (r *Report) ErrorCount() int {
	count := 0
	for i := range r.Issues {
		if r.Issues[i].IsError() {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warnings.
func (r *Report) WarningCount() int {
	count := 0
	for i := range r.Issues {
		if r.Issues[i].IsWarning() {
			count++
		}
	}
	return count
}

// Errors returns only the error issues.
func (r *Report) Errors() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.IsError() {
			out = append(out, issue)
		}
	}
	return out
}

// ForElement returns the issues about the element with the given id.
func (r *Report) ForElement(id string) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.ElementID == id {
			out = append(out, issue)
		}
	}
	return out
}

// ElementIDs returns the ids of the elements with at least one error, in
// report order without duplicates.
func (r *Report) ElementIDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, issue := range r.Issues {
		if !issue.IsError() || issue.ElementID == "" || seen[issue.ElementID] {
			continue
		}
		seen[issue.ElementID] = true
		out = append(out, issue.ElementID)
	}
	return out
}
