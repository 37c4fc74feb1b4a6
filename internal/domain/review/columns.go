package review

import (
	"strconv"
	"strings"
	"time"

	"github.com/ckdreview/ckdreview/internal/domain/extract"
	"github.com/ckdreview/ckdreview/internal/domain/scoring"
)

// Columns is the header of the review table.
var Columns = []string{
	"Run_ID", "HC_Number", "Source", "Age", "Gender",
	"EMIS_CKD_Code", "Transplant_Kidney", "Dialysis", "Medications",
	"Sample_Date", "Creatinine", "Sample_Date_3m_prior", "Creatinine_3m_prior",
	"eGFR", "eGFR_3m_prior", "eGFR_Trend", "eGFR_Stage", "CKD_Stage", "CKD_Stage_3m",
	"ACR", "CKD_ACR", "Proteinuria_Flag", "risk_2yr", "risk_5yr", "ACR_Imputed",
	"Systolic_BP", "Diastolic_BP", "BP_Classification", "BP_Target", "BP_Flag",
	"haemoglobin", "Anaemia_Classification", "Anaemia_Flag",
	"HbA1c", "HbA1c_Target",
	"Potassium", "Potassium_Flag", "Calcium", "Calcium_Flag", "Phosphate", "Phosphate_Flag",
	"Bicarbonate", "Bicarbonate_Flag", "Parathyroid", "Parathyroid_Flag",
	"Vitamin_D", "Vitamin_D_Flag", "CKD_MBD_Flag", "Height",
	"Contraindicated_Prescribed", "Contraindicated_BNF_Links", "Dose_Adjustment_Prescribed",
	"Statin_Recommendation", "SGLT2i_Recommendation", "Recommended_Medications", "Lifestyle_Advice",
	"Nephrology_Referral", "Multidisciplinary_Care", "Modality_Education",
	"EMIS_Coding_Check", "Days_Since_Visit", "review_message",
}

// ExclusionColumns is the header of the exclusion table.
var ExclusionColumns = []string{
	"Run_ID", "HC_Number", "Source", "Age", "Gender", "Sample_Date",
	"Creatinine", "eGFR", "ACR", "CKD_Stage", "Missing_Fields", "review_message",
}

// Row renders the record in Columns order.
func (r *PatientRecord) Row() []string {
	risk2, risk5, imputed := scoring.InsufficientData, scoring.InsufficientData, ""
	if r.Risk != nil {
		risk2 = fmtRisk(r.Risk.TwoYear)
		risk5 = fmtRisk(r.Risk.FiveYear)
		imputed = strconv.FormatBool(r.Risk.ACRImputed)
	}
	days := ""
	if r.DaysSinceVisit != nil {
		days = strconv.Itoa(*r.DaysSinceVisit)
	}
	links := make([]string, 0, len(r.Contraindicated))
	for _, d := range r.Contraindicated {
		if d.BNFLink != "" {
			links = append(links, d.BNFLink)
		}
	}
	return []string{
		r.RunID.String(), r.HCNumber, string(r.Source), fmtNum(r.Age), r.Gender,
		r.EMISCKDCode, r.TransplantKidney, r.Dialysis, r.Medications,
		fmtDate(r.SampleDate), fmtNum(r.Creatinine), fmtDate(r.Date3mPrior), fmtNum(r.Creatinine3mPrior),
		fmtNum(r.EGFR), fmtNum(r.EGFR3mPrior), r.EGFRTrend, string(r.BaseStage), string(r.CKDStage), string(r.CKDStage3m),
		fmtNum(r.ACR), r.ACRGrade, r.Proteinuria, risk2, risk5, imputed,
		fmtNum(r.Systolic), fmtNum(r.Diastolic), r.BPClass, r.BPTarget, r.BPFlag,
		fmtNum(r.Haemoglobin), r.Anaemia, r.AnaemiaFlag,
		fmtNum(r.HbA1c), r.HbA1cTarget,
		fmtNum(r.Potassium), r.PotassiumFlag, fmtNum(r.Calcium), r.CalciumFlag, fmtNum(r.Phosphate), r.PhosphateFlag,
		fmtNum(r.Bicarbonate), r.BicarbonateFlag, fmtNum(r.Parathyroid), r.ParathyroidFlag,
		fmtNum(r.VitaminD), r.VitaminDFlag, r.CKDMBDFlag, fmtNum(r.Height),
		scoring.DrugNames(r.Contraindicated, scoring.NoContraindications), strings.Join(links, " "),
		scoring.DrugNames(r.DoseAdjustments, scoring.NoAdjustments),
		r.Statin, r.SGLT2, strings.Join(r.Recommended, "; "), r.Lifestyle,
		r.Indications.Nephrology, r.Indications.Multidisciplinary, r.Indications.ModalityEducation,
		r.CodingCheck, days, string(r.Triage),
	}
}

// ExclusionRow renders the record in ExclusionColumns order.
func (r *PatientRecord) ExclusionRow() []string {
	return []string{
		r.RunID.String(), r.HCNumber, string(r.Source), fmtNum(r.Age), r.Gender, fmtDate(r.SampleDate),
		fmtNum(r.Creatinine), fmtNum(r.EGFR), fmtNum(r.ACR), string(r.CKDStage),
		strings.Join(r.MissingFields, ", "), string(r.Triage),
	}
}

func fmtNum(v *float64) string {
	if v == nil {
		return scoring.Missing
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func fmtRisk(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return scoring.Missing
	}
	return t.Format(extract.DisplayDateLayout)
}
