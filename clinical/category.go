/*
 * Copyright 2025 The Labtrail Authors
 * SPDX-License-Identifier: Apache-2.0
 */
package clinical

import "strings"

// categoryKeywords maps dashboard group headings to substrings matched
// against the canonicalized marker name. Order matters: the first group
// with a matching keyword wins.
var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"Lipids", []string{"CHOLESTEROL", "HDL", "LDL", "TRIG", "APOB", "LIPOPROTEIN", "NON-HDL", "RATIO", "HOMOCYST", "CRP", "HS-CRP"}},
	{"Hormones", []string{"TESTOSTERONE", "OESTRADIOL", "PROGESTERONE", "DHEA", "SHBG", "FSH", "LH", "CORTISOL", "PROLACTIN"}},
	{"Thyroid", []string{"TSH", "T3", "T4", "FT3", "FT4"}},
	{"Metabolic", []string{"GLUCOSE", "INSULIN", "HBA1C", "SUGAR"}},
	{"Blood", []string{"HAEMOGLOBIN", "RED CELL", "WHITE CELL", "PLATELET", "NEUTROPHIL", "LYMPHOCYTE", "MONOCYTE", "EOSINOPHIL", "BASOPHIL", "MCH", "MCV", "RDW", "HCT", "HAEMATOCRIT", "LEUCOCYTE", "ERYTHROCYTE"}},
	{"Vitamins & Minerals", []string{"VITAMIN", "MAGNESIUM", "IRON", "FERRITIN", "ZINC", "TRANSFERRIN", "SATURATION", "CALCIUM"}},
	{"Liver", []string{"ALT", "AST", "GGT", "BILIRUBIN", "ALBUMIN", "GLOBULIN", "PROTEIN", "ALKALINE", "PHOSPHATASE"}},
	{"Kidney", []string{"CREATININE", "UREA", "EGFR", "URIC ACID", "SODIUM", "POTASSIUM", "CHLORIDE", "CO2", "BICARBONATE"}},
}

// CategoryFor groups a marker under a dashboard heading by keyword match
// against its canonicalized name. Unrecognized markers land in "Other".
func CategoryFor(rawMarker string) string {
	clean := CanonicalizeMarker(rawMarker)
	for _, group := range categoryKeywords {
		for _, k := range group.keywords {
			if strings.Contains(clean, k) {
				return group.name
			}
		}
	}
	return "Other"
}
