package service

import (
	"github.com/sirupsen/logrus"

	"github.com/pharmgx-twin-server/internal/domain"
	"github.com/pharmgx-twin-server/internal/guidelines"
)

// Activity-score thresholds for CYP-family metabolizer classification.
const (
	scorePoorMax         = 0.0
	scoreIntermediateMax = 1.0
	scoreNormalMax       = 2.25
)

// PhenotypeClassifierService maps a gene activity record to a phenotype label.
type PhenotypeClassifierService struct {
	logger *logrus.Logger
}

// NewPhenotypeClassifierService creates a new phenotype classifier service.
func NewPhenotypeClassifierService(logger *logrus.Logger) *PhenotypeClassifierService {
	return &PhenotypeClassifierService{logger: logger}
}

// Classify resolves the phenotype for a called gene record. Genes with
// activity scoring classify on thresholds; the rest classify categorically
// from the assigned allele-function pair. Activity-score calls in the normal
// range report "Normal Function" rather than "Normal Metabolizer" so
// downstream consumers can tell which semantics produced the call.
func (s *PhenotypeClassifierService) Classify(table guidelines.GeneTable, record domain.GeneActivityRecord) domain.Phenotype {
	if table.UsesActivityScore {
		return classifyByScore(record.ActivityScore)
	}
	if table.FunctionVocabulary {
		return classifyByFunctionPair(record.Alleles)
	}
	return classifyByMetabolizerPair(record.Alleles)
}

func classifyByScore(score *float64) domain.Phenotype {
	if score == nil {
		return domain.PhenotypeIndeterminate
	}
	switch {
	case *score < 0:
		return domain.PhenotypeIndeterminate
	case *score == scorePoorMax:
		return domain.PhenotypePoorMetabolizer
	case *score <= scoreIntermediateMax:
		return domain.PhenotypeIntermediateMetabolizer
	case *score <= scoreNormalMax:
		return domain.PhenotypeNormalFunction
	default:
		return domain.PhenotypeUltrarapidMetabolizer
	}
}

func classifyByMetabolizerPair(alleles [2]domain.AlleleFunction) domain.Phenotype {
	none := countFunctions(alleles, domain.FunctionNone)
	decreased := countFunctions(alleles, domain.FunctionDecreased)
	increased := countFunctions(alleles, domain.FunctionIncreased)

	switch {
	case none == 2:
		return domain.PhenotypePoorMetabolizer
	case none == 1 || decreased > 0:
		return domain.PhenotypeIntermediateMetabolizer
	case increased == 2:
		return domain.PhenotypeUltrarapidMetabolizer
	case increased == 1:
		return domain.PhenotypeRapidMetabolizer
	default:
		return domain.PhenotypeNormalMetabolizer
	}
}

func classifyByFunctionPair(alleles [2]domain.AlleleFunction) domain.Phenotype {
	none := countFunctions(alleles, domain.FunctionNone)
	decreased := countFunctions(alleles, domain.FunctionDecreased)
	increased := countFunctions(alleles, domain.FunctionIncreased)

	switch {
	case none+decreased == 2:
		return domain.PhenotypePoorFunction
	case none == 1 || decreased == 1:
		return domain.PhenotypeDecreasedFunction
	case increased > 0:
		return domain.PhenotypeIncreasedFunction
	default:
		return domain.PhenotypeNormalFunction
	}
}

func countFunctions(alleles [2]domain.AlleleFunction, fn domain.AlleleFunction) int {
	count := 0
	for _, a := range alleles {
		if a == fn {
			count++
		}
	}
	return count
}
