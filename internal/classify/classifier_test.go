package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carelens/carelens/constants"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want constants.ReportType
	}{
		{
			name: "prescription keywords",
			text: "Rx: Metformin 500mg tablet, take twice daily with food",
			want: constants.TypePrescription,
		},
		{
			name: "blood test keywords",
			text: "CBC results: Hemoglobin 13.2 g/dL, WBC 6.1",
			want: constants.TypeBloodTest,
		},
		{
			name: "imaging keywords",
			text: "Chest X-Ray PA view, no acute cardiopulmonary findings",
			want: constants.TypeImaging,
		},
		{
			name: "no keywords",
			text: "Patient visited the clinic for a routine check.",
			want: constants.TypeGeneral,
		},
		{
			name: "empty text",
			text: "",
			want: constants.TypeGeneral,
		},
		{
			name: "case insensitive",
			text: "DOSAGE ADJUSTED PER PHARMACY",
			want: constants.TypePrescription,
		},
		{
			name: "prescription wins over blood test",
			text: "Medication adjusted based on glucose and cholesterol levels",
			want: constants.TypePrescription,
		},
		{
			name: "blood test wins over imaging",
			text: "Serum lipid panel ordered alongside the ultrasound",
			want: constants.TypeBloodTest,
		},
		{
			name: "glucose monitoring note is a blood test",
			text: "Fasting glucose 99 mg/dL, HbA1c 5.6%",
			want: constants.TypeBloodTest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}
