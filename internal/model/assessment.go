package model

import (
	"fmt"
	"time"
)

// Assessment is a normalized measurement ready for derivation.
type Assessment struct {
	SubjectID   string
	Param       ParameterCode
	LesionID    string
	Visit       string
	Date        time.Time
	StudyDay    int
	Value       *float64
	Qualitative Qualitative
	NewLesion   bool
	SourceRow   int64
}

// Subject carries the subject-level dates used by time-to-event derivations.
type Subject struct {
	SubjectID             string
	FirstDose             time.Time
	Death                 *time.Time
	NewTherapy            *time.Time
	Discontinued          *time.Time
	DiscontinuationReason string
}

// Severity grades a data-quality finding.
type Severity string

const (
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// FindingCode classifies a data-quality finding.
type FindingCode string

const (
	FindingMissingBaseline     FindingCode = "MISSING_BASELINE"
	FindingNoPostBaseline      FindingCode = "NO_POST_BASELINE"
	FindingDuplicateBaseline   FindingCode = "DUPLICATE_BASELINE"
	FindingTiedBaseline        FindingCode = "TIED_BASELINE"
	FindingOrphanLesion        FindingCode = "ORPHAN_LESION"
	FindingIncompleteTargetSum FindingCode = "INCOMPLETE_TARGET_SUM"
	FindingEquivocalNewLesion  FindingCode = "EQUIVOCAL_NEW_LESION"
	FindingConsistency         FindingCode = "CONSISTENCY"
	FindingMissingSubject      FindingCode = "MISSING_SUBJECT"
	FindingConformance         FindingCode = "CONFORMANCE"
)

// Finding is a data-quality warning or a hard validation failure scoped to
// one subject-parameter.
type Finding struct {
	SubjectID     string
	ParameterCode ParameterCode
	Date          *time.Time
	Severity      Severity
	Code          FindingCode
	Message       string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s %s/%s %s: %s", f.Severity, f.SubjectID, f.ParameterCode, f.Code, f.Message)
}

// Warn builds a warning finding.
func Warn(subjectID string, param ParameterCode, code FindingCode, format string, args ...any) Finding {
	return Finding{
		SubjectID:     subjectID,
		ParameterCode: param,
		Severity:      SeverityWarning,
		Code:          code,
		Message:       fmt.Sprintf(format, args...),
	}
}

// Fail builds a hard validation failure finding.
func Fail(subjectID string, param ParameterCode, code FindingCode, format string, args ...any) Finding {
	return Finding{
		SubjectID:     subjectID,
		ParameterCode: param,
		Severity:      SeverityError,
		Code:          code,
		Message:       fmt.Sprintf(format, args...),
	}
}
