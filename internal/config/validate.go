// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of
// issues (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be
	// surfaced to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline. Path is a
// dotted path into the config (e.g. "output.root"); Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a
// single error where callers expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Validate performs static validation of a Pipeline. It does not mutate
// the pipeline; callers decide whether warnings are fatal.
func Validate(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateLocation("input", p.Input.Kind, p.Input.Root)...)
	issues = append(issues, validateLocation("output", p.Output.Kind, p.Output.Root)...)

	if (p.Input.Kind == "s3" || p.Output.Kind == "s3") && strings.TrimSpace(p.S3.Region) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "s3.region",
			Message:  "s3.region is required when any location is s3-backed",
		})
	}

	if p.Runtime.LoadWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.load_workers",
			Message:  "load_workers must not be negative",
		})
	}
	return issues
}

func validateLocation(path, kind, root string) []Issue {
	var issues []Issue

	if strings.TrimSpace(kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".kind",
			Message:  path + ".kind must not be empty",
		})
		return issues
	}
	switch kind {
	case "file", "s3":
		// ok
	default:
		// Unknown kinds are warnings for forward compatibility; the run
		// will still fail fast when no implementation matches.
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     path + ".kind",
			Message:  fmt.Sprintf("unknown kind %q; ensure a matching implementation exists", kind),
		})
	}

	if strings.TrimSpace(root) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path + ".root",
			Message:  path + ".root must not be empty",
		})
	}
	return issues
}
