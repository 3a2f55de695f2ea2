package recist

import (
	"fmt"

	"github.com/gyeh/oncoresp/internal/model"
)

// CheckConsistency returns a violation message when a progression criterion
// flag is set on a record whose response is not PD, or nil when the record
// is consistent.
func CheckConsistency(r *model.ResponseRecord) *string {
	if !r.AnyPDCriterion() || r.ResponseCode == model.OverallPD.String() {
		return nil
	}
	var flags []string
	if r.CritTargetPD {
		flags = append(flags, "CRIT_TARGET_PD")
	}
	if r.CritNonTargetPD {
		flags = append(flags, "CRIT_NON_TARGET_PD")
	}
	if r.CritNewLesionPD {
		flags = append(flags, "CRIT_NEW_LESION_PD")
	}
	msg := fmt.Sprintf("%v set but response is %s", flags, r.ResponseCode)
	return &msg
}
