package service

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pharmgx-twin-server/internal/domain"
)

// vcfFormatMarker is the literal token that must appear in a metadata line
// before any data row. Its absence is a hard validation failure.
const vcfFormatMarker = "##fileformat=VCF"

// vcfMinColumns is the minimum column count of a data row:
// CHROM POS ID REF ALT QUAL FILTER INFO FORMAT SAMPLE.
const vcfMinColumns = 10

// VariantParserService parses VCF-style variant-call documents into typed
// variant records.
type VariantParserService struct {
	logger *logrus.Logger
}

// NewVariantParserService creates a new variant parser service.
func NewVariantParserService(logger *logrus.Logger) *VariantParserService {
	return &VariantParserService{logger: logger}
}

// Parse converts a variant-call document into an ordered variant sequence.
// It fails with domain.ErrMissingFormatHeader when the format marker is
// absent and with domain.ErrNoVariants when the marker is present but no
// data row parses. Rows lacking the minimum column count are skipped, not
// fatal; repeated ids are kept in document order without deduplication.
func (s *VariantParserService) Parse(document string) ([]domain.Variant, error) {
	var (
		variants   []domain.Variant
		markerSeen bool
		skipped    int
	)

	scanner := bufio.NewScanner(strings.NewReader(document))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "##") {
			if strings.HasPrefix(line, vcfFormatMarker) {
				markerSeen = true
			}
			continue
		}

		// Column header row.
		if strings.HasPrefix(line, "#") {
			continue
		}

		// The marker must precede the first data row.
		if !markerSeen {
			return nil, fmt.Errorf("document validation: %w", domain.ErrMissingFormatHeader)
		}

		fields := strings.Split(line, "\t")
		if len(fields) < vcfMinColumns {
			skipped++
			continue
		}

		position, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			skipped++
			continue
		}

		variants = append(variants, domain.Variant{
			Chromosome:  fields[0],
			Position:    position,
			ID:          fields[2],
			Reference:   fields[3],
			Alternate:   fields[4],
			SampleField: fields[9],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}

	if !markerSeen {
		return nil, fmt.Errorf("document validation: %w", domain.ErrMissingFormatHeader)
	}

	// A valid header with zero parseable rows is its own failure mode,
	// never an empty-but-successful result.
	if len(variants) == 0 {
		return nil, fmt.Errorf("document validation: %w", domain.ErrNoVariants)
	}

	s.logger.WithFields(logrus.Fields{
		"variant_count": len(variants),
		"skipped_rows":  skipped,
	}).Debug("Parsed variant document")

	return variants, nil
}
