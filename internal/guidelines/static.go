package guidelines

import "github.com/pharmgx-twin-server/internal/domain"

// DefaultDatasetVersion identifies the curated snapshot shipped with the
// binary. Deployments can override it entirely from a SQLite or PostgreSQL
// guideline store.
const DefaultDatasetVersion = "cpic-2024.1"

// DefaultDataset returns the built-in curated dataset. Allele tables follow
// CPIC gene-specific allele definition tables; values are fixed curated data
// and must not be derived at runtime.
func DefaultDataset() *Dataset {
	return &Dataset{
		Version: DefaultDatasetVersion,
		Genes: map[string]GeneTable{
			"CYP2D6": {
				Gene:              "CYP2D6",
				UsesActivityScore: true,
				ReferenceAllele:   "*1",
				ReferenceActivity: 1.0,
				MaxActivityScore:  2.0,
				Alleles: map[string]VariantAllele{
					"rs3892097":  {RSID: "rs3892097", StarAllele: "*4", Function: domain.FunctionNone, ActivityValue: 0},
					"rs5030655":  {RSID: "rs5030655", StarAllele: "*6", Function: domain.FunctionNone, ActivityValue: 0},
					"rs1065852":  {RSID: "rs1065852", StarAllele: "*10", Function: domain.FunctionDecreased, ActivityValue: 0.25},
					"rs28371725": {RSID: "rs28371725", StarAllele: "*41", Function: domain.FunctionDecreased, ActivityValue: 0.5},
				},
			},
			"CYP2C19": {
				Gene:              "CYP2C19",
				ReferenceAllele:   "*1",
				ReferenceActivity: 1.0,
				MaxActivityScore:  2.0,
				Alleles: map[string]VariantAllele{
					"rs4244285":  {RSID: "rs4244285", StarAllele: "*2", Function: domain.FunctionNone, ActivityValue: 0},
					"rs4986893":  {RSID: "rs4986893", StarAllele: "*3", Function: domain.FunctionNone, ActivityValue: 0},
					"rs12248560": {RSID: "rs12248560", StarAllele: "*17", Function: domain.FunctionIncreased, ActivityValue: 1.5},
				},
			},
			"CYP2C9": {
				Gene:              "CYP2C9",
				UsesActivityScore: true,
				ReferenceAllele:   "*1",
				ReferenceActivity: 1.0,
				MaxActivityScore:  2.0,
				Alleles: map[string]VariantAllele{
					"rs1799853": {RSID: "rs1799853", StarAllele: "*2", Function: domain.FunctionDecreased, ActivityValue: 0.5},
					"rs1057910": {RSID: "rs1057910", StarAllele: "*3", Function: domain.FunctionNone, ActivityValue: 0},
				},
			},
			"SLCO1B1": {
				Gene:               "SLCO1B1",
				FunctionVocabulary: true,
				ReferenceAllele:    "*1",
				ReferenceActivity:  1.0,
				MaxActivityScore:   2.0,
				Alleles: map[string]VariantAllele{
					"rs4149056": {RSID: "rs4149056", StarAllele: "*5", Function: domain.FunctionDecreased, ActivityValue: 0.5},
				},
			},
			"TPMT": {
				Gene:              "TPMT",
				ReferenceAllele:   "*1",
				ReferenceActivity: 1.0,
				MaxActivityScore:  2.0,
				Alleles: map[string]VariantAllele{
					"rs1800462": {RSID: "rs1800462", StarAllele: "*2", Function: domain.FunctionNone, ActivityValue: 0},
					"rs1800460": {RSID: "rs1800460", StarAllele: "*3B", Function: domain.FunctionNone, ActivityValue: 0},
					"rs1142345": {RSID: "rs1142345", StarAllele: "*3C", Function: domain.FunctionNone, ActivityValue: 0},
				},
			},
			"DPYD": {
				Gene:              "DPYD",
				UsesActivityScore: true,
				ReferenceAllele:   "*1",
				ReferenceActivity: 1.0,
				MaxActivityScore:  2.0,
				Alleles: map[string]VariantAllele{
					"rs3918290":  {RSID: "rs3918290", StarAllele: "*2A", Function: domain.FunctionNone, ActivityValue: 0},
					"rs55886062": {RSID: "rs55886062", StarAllele: "*13", Function: domain.FunctionNone, ActivityValue: 0},
					"rs67376798": {RSID: "rs67376798", StarAllele: "c.2846A>T", Function: domain.FunctionDecreased, ActivityValue: 0.5},
				},
			},
			"VKORC1": {
				Gene:               "VKORC1",
				FunctionVocabulary: true,
				ReferenceAllele:    "*1",
				ReferenceActivity:  1.0,
				MaxActivityScore:   2.0,
				Alleles: map[string]VariantAllele{
					"rs9923231": {RSID: "rs9923231", StarAllele: "-1639G>A", Function: domain.FunctionDecreased, ActivityValue: 0.5},
				},
			},
		},
		Drugs: map[string]DrugRule{
			"CODEINE": {
				Drug: "CODEINE", Gene: "CYP2D6", Direction: domain.DirectionActivation,
				EvidenceStrength: "CPIC Level A",
				Recommendations: map[domain.PhenotypeCode]string{
					domain.CodePM:  "Avoid codeine; greatly reduced morphine formation compromises analgesia",
					domain.CodeIM:  "Use label dosing; monitor for insufficient pain relief",
					domain.CodeURM: "Avoid codeine; risk of morphine toxicity from ultrarapid activation",
				},
			},
			"TRAMADOL": {
				Drug: "TRAMADOL", Gene: "CYP2D6", Direction: domain.DirectionActivation,
				EvidenceStrength: "CPIC Level A",
				Recommendations: map[domain.PhenotypeCode]string{
					domain.CodePM:  "Avoid tramadol; select a non-CYP2D6 opioid",
					domain.CodeURM: "Avoid tramadol; risk of O-desmethyltramadol toxicity",
				},
			},
			"CLOPIDOGREL": {
				Drug: "CLOPIDOGREL", Gene: "CYP2C19", Direction: domain.DirectionActivation,
				EvidenceStrength: "CPIC Level A",
				Recommendations: map[domain.PhenotypeCode]string{
					domain.CodePM:  "Use prasugrel or ticagrelor; clopidogrel activation is impaired",
					domain.CodeIM:  "Consider prasugrel or ticagrelor",
					domain.CodeURM: "Monitor for bleeding; platelet inhibition may be enhanced",
				},
			},
			"WARFARIN": {
				Drug: "WARFARIN", Gene: "CYP2C9", Direction: domain.DirectionClearance,
				EvidenceStrength: "CPIC Level A",
				Recommendations: map[domain.PhenotypeCode]string{
					domain.CodePM: "Reduce starting dose 50-80 percent and titrate by INR",
					domain.CodeIM: "Reduce starting dose 20-50 percent and titrate by INR",
				},
			},
			"OMEPRAZOLE": {
				Drug: "OMEPRAZOLE", Gene: "CYP2C19", Direction: domain.DirectionClearance,
				EvidenceStrength: "CPIC Level A",
				Recommendations: map[domain.PhenotypeCode]string{
					domain.CodePM:  "Consider 50 percent dose reduction for chronic therapy",
					domain.CodeRM:  "Consider dose increase; monitor for therapeutic failure",
					domain.CodeURM: "Increase dose up to 100 percent for H. pylori eradication",
				},
			},
			"ESCITALOPRAM": {
				Drug: "ESCITALOPRAM", Gene: "CYP2C19", Direction: domain.DirectionClearance,
				EvidenceStrength: "CPIC Level A",
				Recommendations: map[domain.PhenotypeCode]string{
					domain.CodePM:  "Reduce starting dose 50 percent or select an alternative SSRI",
					domain.CodeURM: "Select an alternative SSRI not primarily cleared by CYP2C19",
				},
			},
			"AMITRIPTYLINE": {
				Drug: "AMITRIPTYLINE", Gene: "CYP2D6", Direction: domain.DirectionClearance,
				EvidenceStrength: "CPIC Level A",
				Recommendations: map[domain.PhenotypeCode]string{
					domain.CodePM:  "Avoid tricyclics or reduce dose 50 percent with level monitoring",
					domain.CodeURM: "Avoid tricyclics; subtherapeutic exposure likely",
				},
			},
			"SIMVASTATIN": {
				Drug: "SIMVASTATIN", Gene: "SLCO1B1", Direction: domain.DirectionClearance,
				EvidenceStrength: "CPIC Level A",
				Recommendations: map[domain.PhenotypeCode]string{
					domain.CodePM: "Prescribe an alternative statin; high myopathy risk",
					domain.CodeIM: "Limit to 20 mg daily or choose an alternative statin",
				},
			},
			"AZATHIOPRINE": {
				Drug: "AZATHIOPRINE", Gene: "TPMT", Direction: domain.DirectionClearance,
				EvidenceStrength: "CPIC Level A",
				Recommendations: map[domain.PhenotypeCode]string{
					domain.CodePM: "Reduce dose 10-fold and dose thrice weekly, or use alternative",
					domain.CodeIM: "Start at 30-80 percent of target dose",
				},
			},
			"FLUOROURACIL": {
				Drug: "FLUOROURACIL", Gene: "DPYD", Direction: domain.DirectionClearance,
				EvidenceStrength: "CPIC Level A",
				Recommendations: map[domain.PhenotypeCode]string{
					domain.CodePM: "Avoid fluoropyrimidines; risk of severe toxicity",
					domain.CodeIM: "Reduce starting dose 50 percent with therapeutic monitoring",
				},
			},
		},
		PK: map[string]PKParameters{
			"CODEINE":      {Drug: "CODEINE", DoseMg: 30, Bioavailability: 0.5, VolumeOfDistributionL: 250, AbsorptionRateKa: 1.5, EliminationRateKe: 0.231, HalfLifeHours: 3, ToxicityThreshold: 0.10, EfficacyFloor: 0.01, Prodrug: true, MetaboliteWeight: 0.3},
			"TRAMADOL":     {Drug: "TRAMADOL", DoseMg: 100, Bioavailability: 0.75, VolumeOfDistributionL: 200, AbsorptionRateKa: 1.2, EliminationRateKe: 0.116, HalfLifeHours: 6, ToxicityThreshold: 0.60, EfficacyFloor: 0.10, Prodrug: true, MetaboliteWeight: 0.25},
			"CLOPIDOGREL":  {Drug: "CLOPIDOGREL", DoseMg: 75, Bioavailability: 0.5, VolumeOfDistributionL: 200, AbsorptionRateKa: 1.0, EliminationRateKe: 0.116, HalfLifeHours: 6, ToxicityThreshold: 0.40, EfficacyFloor: 0.05, Prodrug: true, MetaboliteWeight: 0.2},
			"WARFARIN":     {Drug: "WARFARIN", DoseMg: 5, Bioavailability: 0.99, VolumeOfDistributionL: 10, AbsorptionRateKa: 1.0, EliminationRateKe: 0.0173, HalfLifeHours: 40, ToxicityThreshold: 1.2, EfficacyFloor: 0.2},
			"OMEPRAZOLE":   {Drug: "OMEPRAZOLE", DoseMg: 20, Bioavailability: 0.4, VolumeOfDistributionL: 20, AbsorptionRateKa: 2.0, EliminationRateKe: 0.693, HalfLifeHours: 1, ToxicityThreshold: 1.5, EfficacyFloor: 0.10},
			"ESCITALOPRAM": {Drug: "ESCITALOPRAM", DoseMg: 10, Bioavailability: 0.8, VolumeOfDistributionL: 850, AbsorptionRateKa: 0.8, EliminationRateKe: 0.0231, HalfLifeHours: 30, ToxicityThreshold: 0.040, EfficacyFloor: 0.004},
			"AMITRIPTYLINE": {Drug: "AMITRIPTYLINE", DoseMg: 25, Bioavailability: 0.45, VolumeOfDistributionL: 1000, AbsorptionRateKa: 0.9, EliminationRateKe: 0.033, HalfLifeHours: 21, ToxicityThreshold: 0.030, EfficacyFloor: 0.003},
			"SIMVASTATIN":  {Drug: "SIMVASTATIN", DoseMg: 20, Bioavailability: 0.05, VolumeOfDistributionL: 100, AbsorptionRateKa: 1.3, EliminationRateKe: 0.347, HalfLifeHours: 2, ToxicityThreshold: 0.030, EfficacyFloor: 0.002},
			"AZATHIOPRINE": {Drug: "AZATHIOPRINE", DoseMg: 50, Bioavailability: 0.6, VolumeOfDistributionL: 60, AbsorptionRateKa: 1.5, EliminationRateKe: 0.139, HalfLifeHours: 5, ToxicityThreshold: 1.0, EfficacyFloor: 0.10},
			"FLUOROURACIL": {Drug: "FLUOROURACIL", DoseMg: 500, Bioavailability: 0.3, VolumeOfDistributionL: 20, AbsorptionRateKa: 2.0, EliminationRateKe: 0.347, HalfLifeHours: 2, ToxicityThreshold: 15, EfficacyFloor: 1.0},
		},
		DefaultPK: PKParameters{
			DoseMg:                100,
			Bioavailability:       0.7,
			VolumeOfDistributionL: 70,
			AbsorptionRateKa:      1.0,
			EliminationRateKe:     0.099,
			HalfLifeHours:         7,
			ToxicityThreshold:     1.5,
			EfficacyFloor:         0.2,
		},
		Risk: RiskTable{
			domain.DirectionClearance: {
				domain.CodePM:     domain.RiskToxic,
				domain.CodeIM:     domain.RiskAdjustDosage,
				domain.CodeNM:     domain.RiskSafe,
				domain.CodeNormal: domain.RiskSafe,
				domain.CodeRM:     domain.RiskAdjustDosage,
				domain.CodeURM:    domain.RiskAdjustDosage,
			},
			domain.DirectionActivation: {
				domain.CodePM:     domain.RiskAdjustDosage,
				domain.CodeIM:     domain.RiskAdjustDosage,
				domain.CodeNM:     domain.RiskSafe,
				domain.CodeNormal: domain.RiskSafe,
				domain.CodeRM:     domain.RiskAdjustDosage,
				domain.CodeURM:    domain.RiskToxic,
			},
		},
		PhenotypeModifiers: map[domain.PhenotypeCode]float64{
			domain.CodePM:     0.25,
			domain.CodeIM:     0.5,
			domain.CodeNM:     1.0,
			domain.CodeNormal: 1.0,
			domain.CodeRM:     1.5,
			domain.CodeURM:    2.0,
		},
	}
}
