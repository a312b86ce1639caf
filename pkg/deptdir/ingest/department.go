package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cognicore/deptdir/pkg/deptdir/internalerr"
)

// Department ids with hard-coded handling.
const (
	NoSignatureDeptID  = "655"
	StatenIslandDeptID = "332"
	EndTimeDeptID      = "653"
)

// OperatorEmail is attached to any department whose text names the operator.
const OperatorEmail = "CRAIGCA@coned.com"

const operatorName = "candice craig"

// Fixed notice texts.
const (
	NoSignatureNotice  = "⚠️ Important Notice:\nDo not send no signature emails for this department."
	EndTimeNotice      = "⏰ Important End Time Notice:\nFor end time jobs with this department, the job will always end at the scheduled end time. You must call and inform the spotter 10 minutes prior to end time."
	StatenIslandPrefix = "Staten Island Notice: "
	statenIslandMarker = "Staten Island"
)

// Department is a finished department record
type Department struct {
	ID             string   `json:"id" yaml:"id"`
	Info           string   `json:"info" yaml:"info"`
	Emails         []string `json:"emails" yaml:"emails"`
	IsStatenIsland bool     `json:"isStatenIsland" yaml:"is_staten_island"`
	HasEndTime     bool     `json:"hasEndTime" yaml:"has_end_time"`
}

// Validate checks if the department has required fields
func (d *Department) Validate() error {
	if d.ID == "" {
		return errors.New("department id is required")
	}
	for _, r := range d.ID {
		if r < '0' || r > '9' {
			return fmt.Errorf("department id %q is not numeric", d.ID)
		}
	}
	return nil
}

// draft is a department under construction during a single parse pass.
type draft struct {
	id             string
	info           string
	emails         []string
	isStatenIsland bool
	hasEndTime     bool

	// one-shot paragraph triggers
	seenMeasure bool
	seenEmail   bool
	seenPlease  bool
}

func newDraft(id, info string) *draft {
	d := &draft{
		id:             id,
		isStatenIsland: id == StatenIslandDeptID,
		hasEndTime:     id == EndTimeDeptID,
	}
	d.appendText("", info)
	return d
}

// appendText adds text to the info buffer behind sep and records which
// paragraph triggers the buffer now contains.
func (d *draft) appendText(sep, text string) {
	d.info += sep + text
	// a measurement line only opens a paragraph while the buffer lacks "ft",
	// whichever unit the line itself uses
	if strings.Contains(text, "ft") {
		d.seenMeasure = true
	}
	if mentionsEmail(text) {
		d.seenEmail = true
	}
	if mentionsPlease(text) {
		d.seenPlease = true
	}
}

func (d *draft) hasEmail(email string) bool {
	for _, e := range d.emails {
		if e == email {
			return true
		}
	}
	return false
}

func (d *draft) finalize() Department {
	return Department{
		ID:             d.id,
		Info:           FormatInfo(d.info),
		Emails:         normalizeEmails(d.emails),
		IsStatenIsland: d.isStatenIsland,
		HasEndTime:     d.hasEndTime,
	}
}

// InvalidInputError reports a payload that is not text.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "invalid input: " + e.Reason
}

// Unwrap lets errors.Is match internalerr.ErrInvalidInput.
func (e *InvalidInputError) Unwrap() error {
	return internalerr.ErrInvalidInput
}
