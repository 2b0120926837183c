// Package classify tags extracted document text with a report type using
// keyword heuristics. Classification is pure and deterministic: categories
// are checked in a fixed precedence order and the first match wins.
package classify

import (
	"strings"

	"github.com/carelens/carelens/constants"
)

var prescriptionKeywords = []string{
	"prescription", "rx", "medication", "tablet", "capsule",
	"dosage", "pharmacy", "refill", "take twice", "take once",
}

var bloodTestKeywords = []string{
	"blood", "hemoglobin", "glucose", "cholesterol", "platelet",
	"cbc", "serum", "lipid", "creatinine", "hba1c", "wbc", "rbc",
}

var imagingKeywords = []string{
	"x-ray", "xray", "mri", "ct scan", "ultrasound",
	"radiograph", "imaging", "sonograph",
}

// Classify maps text to a report type. Case-insensitive substring match,
// no scoring: a document containing both prescription and blood-test
// keywords is a prescription.
func Classify(text string) constants.ReportType {
	t := strings.ToLower(text)
	switch {
	case containsAny(t, prescriptionKeywords):
		return constants.TypePrescription
	case containsAny(t, bloodTestKeywords):
		return constants.TypeBloodTest
	case containsAny(t, imagingKeywords):
		return constants.TypeImaging
	default:
		return constants.TypeGeneral
	}
}

func containsAny(t string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}
