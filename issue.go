package profiletree

// IssueSeverity represents the severity of a profile diagnostic.
// Values follow OperationOutcome.issue.severity in FHIR.
type IssueSeverity string

const (
	// SeverityError marks a profile that cannot be valid as written.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a potential problem that should be reviewed.
	SeverityWarning IssueSeverity = "warning"
	// SeverityInformation indicates informational feedback.
	SeverityInformation IssueSeverity = "information"
)

// IssueType represents the type of issue.
// Values follow OperationOutcome.issue.code in FHIR.
type IssueType string

const (
	// IssueTypeStructure indicates a structural issue in the element tree.
	IssueTypeStructure IssueType = "structure"
	// IssueTypeValue indicates an invalid value, such as a malformed max.
	IssueTypeValue IssueType = "value"
	// IssueTypeInvariant indicates an invariant that cannot be evaluated.
	IssueTypeInvariant IssueType = "invariant"
	// IssueTypeProcessing indicates a processing error.
	IssueTypeProcessing IssueType = "processing"
)

// Issue is a single diagnostic about one element of a profile.
type Issue struct {
	// Severity of the issue (error, warning, information)
	Severity IssueSeverity `json:"severity"`

	// Code identifying the type of issue
	Code IssueType `json:"code"`

	// Diagnostics contains human-readable details about the issue
	Diagnostics string `json:"diagnostics,omitempty"`

	// ElementID is the id of the element the issue is about
	ElementID string `json:"elementId,omitempty"`

	// Path is the element path
	Path string `json:"path,omitempty"`

	// ConstraintKey is the invariant key (e.g., "ele-1") for invariant issues
	ConstraintKey string `json:"constraintKey,omitempty"`
}

// IsError returns true if this is an error issue.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError
}

// IsWarning returns true if this is a warning.
func (i Issue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	at := ""
	switch {
	case i.ElementID != "":
		at = " at " + i.ElementID
	case i.Path != "":
		at = " at " + i.Path
	}
	return string(i.Severity) + ": " + i.Diagnostics + at
}

// IssueBuilder provides a fluent API for building issues.
type IssueBuilder struct {
	issue Issue
}

// NewIssue creates a new IssueBuilder.
func NewIssue(severity IssueSeverity, code IssueType) *IssueBuilder {
	return &IssueBuilder{
		issue: Issue{
			Severity: severity,
			Code:     code,
		},
	}
}

// Error creates an error issue.
func Error(code IssueType) *IssueBuilder {
	return NewIssue(SeverityError, code)
}

// Warning creates a warning issue.
func Warning(code IssueType) *IssueBuilder {
	return NewIssue(SeverityWarning, code)
}

// Info creates an informational issue.
func Info(code IssueType) *IssueBuilder {
	return NewIssue(SeverityInformation, code)
}

// Diagnostics sets the diagnostic message.
func (b *IssueBuilder) Diagnostics(msg string) *IssueBuilder {
	b.issue.Diagnostics = msg
	return b
}

// At sets the element id and path.
func (b *IssueBuilder) At(id, path string) *IssueBuilder {
	b.issue.ElementID = id
	b.issue.Path = path
	return b
}

// Constraint sets the constraint key.
func (b *IssueBuilder) Constraint(key string) *IssueBuilder {
	b.issue.ConstraintKey = key
	return b
}

// Build returns the constructed issue.
func (b *IssueBuilder) Build() Issue {
	return b.issue
}
