package service

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/pharmgx-twin-server/internal/domain"
	"github.com/pharmgx-twin-server/internal/guidelines"
)

// DiplotypeCallerService derives per-gene diplotype calls from parsed
// variants using the curated gene tables.
type DiplotypeCallerService struct {
	logger *logrus.Logger
}

// NewDiplotypeCallerService creates a new diplotype caller service.
func NewDiplotypeCallerService(logger *logrus.Logger) *DiplotypeCallerService {
	return &DiplotypeCallerService{logger: logger}
}

// alleleCopy is one inherited copy of a curated star allele.
type alleleCopy struct {
	allele guidelines.VariantAllele
}

// Call builds the activity record for one gene. Only variants whose id is in
// the gene's curated table may influence the call; everything else is ignored
// outright, which is the non-bleed invariant the pipeline's correctness rests
// on. With no curated match the gene defaults to its reference diplotype at
// maximal activity.
func (s *DiplotypeCallerService) Call(table guidelines.GeneTable, variants []domain.Variant) domain.GeneActivityRecord {
	record := domain.GeneActivityRecord{
		Gene: table.Gene,
	}

	var copies []alleleCopy

	for _, v := range variants {
		allele, ok := table.Alleles[v.ID]
		if !ok {
			continue
		}

		record.Covered = true
		zygosity := v.Zygosity()

		record.Contributing = append(record.Contributing, domain.MatchedVariant{
			RSID:       v.ID,
			Genotype:   v.Genotype(),
			Zygosity:   zygosity,
			StarAllele: allele.StarAllele,
			Impact:     impactFor(zygosity, allele),
		})

		for i := 0; i < zygosity.VariantCopies(); i++ {
			copies = append(copies, alleleCopy{allele: allele})
		}
	}

	// Lower-activity copies claim the two allele slots first, so compound
	// heterozygotes compose toward a lower score than any single variant
	// implies. Stable sort keeps document order among ties.
	sort.SliceStable(copies, func(i, j int) bool {
		return copies[i].allele.ActivityValue < copies[j].allele.ActivityValue
	})

	var (
		labels     [2]string
		functions  [2]domain.AlleleFunction
		activities [2]float64
	)
	for slot := 0; slot < 2; slot++ {
		if slot < len(copies) {
			labels[slot] = copies[slot].allele.StarAllele
			functions[slot] = copies[slot].allele.Function
			activities[slot] = copies[slot].allele.ActivityValue
			continue
		}
		labels[slot] = table.ReferenceAllele
		functions[slot] = domain.FunctionNormal
		activities[slot] = table.ReferenceActivity
	}

	record.Diplotype = labels[0] + "/" + labels[1]
	record.Alleles = functions

	if table.UsesActivityScore {
		score := activities[0] + activities[1]
		record.ActivityScore = &score
	}

	if len(record.Contributing) > 0 {
		s.logger.WithFields(logrus.Fields{
			"gene":      table.Gene,
			"diplotype": record.Diplotype,
			"matched":   len(record.Contributing),
		}).Debug("Called diplotype from curated variants")
	}

	return record
}

// impactFor resolves the reported functional impact for one matched variant.
// Genotypes outside the three diploid biallelic calls stay Unknown and are
// later excluded from the detected-variant surface.
func impactFor(zygosity domain.Zygosity, allele guidelines.VariantAllele) domain.FunctionalImpact {
	switch zygosity {
	case domain.HomozygousReference:
		return domain.ImpactNormalFunction
	case domain.Heterozygous:
		if allele.Function == domain.FunctionIncreased {
			return domain.ImpactIncreasedFunction
		}
		return domain.ImpactReducedFunction
	case domain.HomozygousVariant:
		switch allele.Function {
		case domain.FunctionNone:
			return domain.ImpactNoFunction
		case domain.FunctionIncreased:
			return domain.ImpactIncreasedFunction
		default:
			return domain.ImpactLossOfFunction
		}
	default:
		return domain.ImpactUnknown
	}
}
