package model

import "strings"

// ParameterCode identifies the kind of measurement carried by an assessment row.
type ParameterCode string

const (
	ParamTargetLesion    ParameterCode = "TL"
	ParamTargetSum       ParameterCode = "SUMDIAM"
	ParamNonTargetLesion ParameterCode = "NTL"
	ParamNewLesion       ParameterCode = "NEWLES"
	ParamDFLC            ParameterCode = "DFLC"
	ParamImmunofixation  ParameterCode = "IFE"
	ParamFLCRatio        ParameterCode = "FLCR"

	// Derived parameters written on output records.
	ParamOverallResponse ParameterCode = "OVRLRESP"
	ParamImmuneResponse  ParameterCode = "IOVRLRSP"
	ParamHemeResponse    ParameterCode = "HEMRESP"
	ParamBestResponse    ParameterCode = "BOR"
	ParamBestHemeResp    ParameterCode = "BHEMRESP"
)

// Parameter describes one supported input parameter.
type Parameter struct {
	Code         ParameterCode
	Label        string
	Quantitative bool
	Hematologic  bool
}

// AllParameters lists the supported input parameters in canonical order.
var AllParameters = []Parameter{
	{Code: ParamTargetLesion, Label: "Target Lesion Diameter", Quantitative: true},
	{Code: ParamTargetSum, Label: "Sum of Diameters of Target Lesions", Quantitative: true},
	{Code: ParamNonTargetLesion, Label: "Non-Target Lesion Assessment"},
	{Code: ParamNewLesion, Label: "New Lesion Indicator"},
	{Code: ParamDFLC, Label: "Difference Between Involved and Uninvolved FLC", Quantitative: true, Hematologic: true},
	{Code: ParamImmunofixation, Label: "Serum/Urine Immunofixation", Hematologic: true},
	{Code: ParamFLCRatio, Label: "Kappa/Lambda FLC Ratio", Quantitative: true, Hematologic: true},
}

// ParameterByCode returns the Parameter for the given code, or ok=false.
func ParameterByCode(code string) (Parameter, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, p := range AllParameters {
		if string(p.Code) == code {
			return p, true
		}
	}
	return Parameter{}, false
}

// derivedLabels name the derived parameters on output records.
var derivedLabels = map[ParameterCode]string{
	ParamOverallResponse: "Overall Response by RECIST 1.1",
	ParamImmuneResponse:  "Overall Response by iRECIST",
	ParamHemeResponse:    "Hematologic Response by IMWG",
	ParamBestResponse:    "Best Overall Response by RECIST 1.1",
	ParamBestHemeResp:    "Best Hematologic Response by IMWG",
}

// Label returns the descriptive name of an input or derived parameter.
func (c ParameterCode) Label() string {
	if l, ok := derivedLabels[c]; ok {
		return l
	}
	if p, ok := ParameterByCode(string(c)); ok {
		return p.Label
	}
	return string(c)
}

// BaselineMethod selects how the baseline record is chosen.
type BaselineMethod string

const (
	BaselinePretreat BaselineMethod = "PRETREAT"
	BaselineFirst    BaselineMethod = "FIRST"
)

// NadirMethod selects which visits participate in the running nadir.
type NadirMethod string

const (
	NadirStandard        NadirMethod = "STANDARD"
	NadirExcludeBaseline NadirMethod = "EXCLUDE_BASELINE"
)
