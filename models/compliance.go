package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CheckStatus represents the outcome of a single compliance check
type CheckStatus string

const (
	CheckPass          CheckStatus = "pass"
	CheckFail          CheckStatus = "fail"
	CheckWarning       CheckStatus = "warning"
	CheckNotApplicable CheckStatus = "not_applicable"
)

// Valid reports whether s is one of the known check statuses
func (s CheckStatus) Valid() bool {
	switch s {
	case CheckPass, CheckFail, CheckWarning, CheckNotApplicable:
		return true
	}
	return false
}

// ComplianceStatus represents the overall verdict of an evaluation
type ComplianceStatus string

const (
	StatusAccepted       ComplianceStatus = "accepted"
	StatusRejected       ComplianceStatus = "rejected"
	StatusReviewRequired ComplianceStatus = "review_required"
)

// Citation points at the provision a check or summary relies on
type Citation struct {
	Regulation string `json:"regulation"`
	ArticleID  string `json:"article_id"`
	Title      string `json:"title,omitempty"`
}

// ComplianceCheck is one atomic determination about a project attribute
type ComplianceCheck struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Actual   *string     `json:"actual,omitempty"`
	Required *string     `json:"required,omitempty"`
	Citation *Citation   `json:"citation,omitempty"`
	Message  string      `json:"message"`
	Source   string      `json:"source"` // "rule" or "llm"
}

// ComplianceChecks represents an ordered list of checks
type ComplianceChecks []ComplianceCheck

// Value implements driver.Valuer for JSONB
func (c ComplianceChecks) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB
func (c *ComplianceChecks) Scan(value interface{}) error {
	bytes, ok := jsonBytes(value)
	if !ok {
		*c = make(ComplianceChecks, 0)
		return nil
	}
	return json.Unmarshal(bytes, c)
}

// Citations represents the cited regulations of a result
type Citations []Citation

// Value implements driver.Valuer for JSONB
func (c Citations) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner for JSONB
func (c *Citations) Scan(value interface{}) error {
	bytes, ok := jsonBytes(value)
	if !ok {
		*c = make(Citations, 0)
		return nil
	}
	return json.Unmarshal(bytes, c)
}

// jsonBytes handles the different types pgx might return for JSONB
func jsonBytes(value interface{}) ([]byte, bool) {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		return nil, false
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil, false
	}
	if len(bytes) == 0 {
		return nil, false
	}
	return bytes, true
}

// ComplianceResult aggregates the checks of one project evaluation
type ComplianceResult struct {
	ID               uuid.UUID        `json:"id"`
	ProjectID        string           `json:"project_id"`
	Checks           ComplianceChecks `json:"checks"`
	Score            int              `json:"score"`
	Status           ComplianceStatus `json:"status"`
	Summary          string           `json:"summary"`
	CitedRegulations Citations        `json:"cited_regulations"`
	Recommendations  []string         `json:"recommendations"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Counts returns the number of pass, fail and warning checks
func (r *ComplianceResult) Counts() (pass, fail, warning int) {
	return CountChecks(r.Checks)
}

// CountChecks returns the number of pass, fail and warning checks
func CountChecks(checks []ComplianceCheck) (pass, fail, warning int) {
	for _, c := range checks {
		switch c.Status {
		case CheckPass:
			pass++
		case CheckFail:
			fail++
		case CheckWarning:
			warning++
		}
	}
	return pass, fail, warning
}
