package validate

import (
	"fmt"
	"strings"

	"worldgraph/internal/config"
	"worldgraph/internal/entity"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeDomainMismatch   = "domain_name_mismatch"
	codeMissingRoot      = "missing_root_type"
	codeUnknownType      = "unknown_type"
	codeUnknownOperation = "unknown_operation"
	codeDuplicateID      = "duplicate_id"
	codeUndescribed      = "undescribed_operation"
	codeUndeclaredHint   = "undeclared_hint"
)

type Issue struct {
	Severity  Severity
	Code      string
	Message   string
	Operation string
}

type Report struct {
	Issues []Issue
}

// HasErrors reports whether any issue has error severity.
func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Run checks a domain descriptor against the registry it is meant to
// describe. domain is the name the project config selects.
func Run(d *config.DomainDescriptor, reg Registry, domain string) (*Report, error) {
	if d == nil {
		return nil, fmt.Errorf("domain descriptor is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}

	issues := make([]Issue, 0)

	if domain != "" && !strings.EqualFold(d.Name, domain) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeDomainMismatch,
			Message:  fmt.Sprintf("descriptor describes %q but the world uses %q", d.Name, domain),
		})
	}

	if reg.RootType() == nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     codeMissingRoot,
			Message:  "no root type is registered",
		})
	}

	for _, spec := range d.Operations {
		if _, ok := reg.TypeByName(spec.Type); !ok {
			issues = append(issues, Issue{
				Severity:  SeverityError,
				Code:      codeUnknownType,
				Message:   fmt.Sprintf("unknown entity type: %s", spec.Type),
				Operation: spec.Key(),
			})
			continue
		}
		op, ok := reg.Operation(spec.Key())
		if !ok {
			issues = append(issues, Issue{
				Severity:  SeverityError,
				Code:      codeUnknownOperation,
				Message:   fmt.Sprintf("unknown operation: %s", spec.Key()),
				Operation: spec.Key(),
			})
			continue
		}
		issues = append(issues, validateHints(spec, op)...)
	}

	issues = append(issues, validateIDs(d, reg)...)

	for _, op := range reg.Operations() {
		if _, ok := d.Operation(op.Key()); !ok {
			issues = append(issues, Issue{
				Severity:  SeverityWarn,
				Code:      codeUndescribed,
				Message:   fmt.Sprintf("operation not described, default id %q applies", strings.ToLower(op.Key())),
				Operation: op.Key(),
			})
		}
	}

	return &Report{Issues: issues}, nil
}

func validateHints(spec config.OperationSpec, op *entity.Operation) []Issue {
	var issues []Issue
	for _, hint := range spec.Hints {
		if !containsString(op.Hints, hint) {
			issues = append(issues, Issue{
				Severity:  SeverityWarn,
				Code:      codeUndeclaredHint,
				Message:   fmt.Sprintf("hint %q is not declared on the operation", hint),
				Operation: op.Key(),
			})
		}
	}
	return issues
}

// validateIDs resolves the id every operation would get and reports ids that
// end up shared, including custom ids shadowing another operation's default.
func validateIDs(d *config.DomainDescriptor, reg Registry) []Issue {
	var issues []Issue
	owners := make(map[string]string)
	for _, op := range reg.Operations() {
		id := strings.ToLower(op.Key())
		if spec, ok := d.Operation(op.Key()); ok && spec.ID != "" {
			id = strings.ToLower(spec.ID)
		}
		if other, exists := owners[id]; exists {
			issues = append(issues, Issue{
				Severity:  SeverityError,
				Code:      codeDuplicateID,
				Message:   fmt.Sprintf("id %q is also used by %s", id, other),
				Operation: op.Key(),
			})
			continue
		}
		owners[id] = op.Key()
	}
	return issues
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
