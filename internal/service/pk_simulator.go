package service

import (
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/pharmgx-twin-server/internal/domain"
	"github.com/pharmgx-twin-server/internal/guidelines"
)

const (
	// pkSampleCount is the fixed number of evenly spaced samples per curve.
	pkSampleCount = 48

	// singularTolerance guards the closed-form model against ka ≈ ke, where
	// the (ka − ke) denominator degenerates.
	singularTolerance = 1e-6

	// metaboliteRateFraction scales the elimination rate into the metabolite
	// formation rate kmet.
	metaboliteRateFraction = 0.5

	pkCacheSize = 256
)

// pkWindows are the allowed simulation window lengths in hours. The window
// for a drug is five half-lives snapped upward to the nearest entry.
var pkWindows = []float64{12, 24, 72, 120}

// PKSimulatorService produces deterministic concentration-time series for
// (drug, phenotype) pairs under a one-compartment oral-absorption model.
// Curves are memoized: identical inputs are served from an LRU cache.
type PKSimulatorService struct {
	dataset *guidelines.Dataset
	cache   *lru.Cache[string, *domain.PKSimulation]
	logger  *logrus.Logger
}

// NewPKSimulatorService creates a new PK simulator service.
func NewPKSimulatorService(dataset *guidelines.Dataset, logger *logrus.Logger) (*PKSimulatorService, error) {
	cache, err := lru.New[string, *domain.PKSimulation](pkCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create simulation cache: %w", err)
	}
	return &PKSimulatorService{dataset: dataset, cache: cache, logger: logger}, nil
}

// Simulate produces the concentration-time series for a drug under a called
// phenotype. windowHours of zero selects the drug's derived default window.
// Unknown drugs simulate with the generic default parameter set rather than
// failing. Re-invoking with identical inputs reproduces identical output.
func (s *PKSimulatorService) Simulate(drug string, phenotype domain.PhenotypeCode, windowHours float64) *domain.PKSimulation {
	params, _ := s.dataset.PKFor(drug)

	window := windowHours
	if window <= 0 {
		window = windowFor(params.HalfLifeHours)
	}

	key := fmt.Sprintf("%s|%s|%g", drug, phenotype, window)
	if cached, ok := s.cache.Get(key); ok {
		return cloneSimulation(cached)
	}

	sim := s.run(params, phenotype, window)
	s.cache.Add(key, cloneSimulation(sim))

	return sim
}

func (s *PKSimulatorService) run(params guidelines.PKParameters, phenotype domain.PhenotypeCode, window float64) *domain.PKSimulation {
	modifier := s.dataset.ModifierFor(phenotype)

	ka := params.AbsorptionRateKa
	ke := params.EliminationRateKe * modifier
	scale := params.DoseMg * params.Bioavailability / params.VolumeOfDistributionL
	kmet := metaboliteRateFraction * ke

	sim := &domain.PKSimulation{
		Drug:              params.Drug,
		Phenotype:         phenotype,
		Prodrug:           params.Prodrug,
		WindowHours:       window,
		ToxicityThreshold: params.ToxicityThreshold,
		EfficacyFloor:     params.EfficacyFloor,
		Points:            make([]domain.PKSeriesPoint, 0, pkSampleCount),
	}

	for i := 0; i < pkSampleCount; i++ {
		t := window * float64(i) / float64(pkSampleCount-1)

		var conc float64
		if math.Abs(ka-ke) < singularTolerance {
			// Closed-form model is singular here; fall back to zero for
			// this sample instead of dividing by the vanishing denominator.
			sim.SingularSamples++
		} else {
			conc = scale * (ka / (ka - ke)) * (math.Exp(-ke*t) - math.Exp(-ka*t))
			if conc < 0 {
				conc = 0
			}
		}

		point := domain.PKSeriesPoint{
			TimeHours:         t,
			Concentration:     conc,
			ToxicityThreshold: params.ToxicityThreshold,
			EfficacyFloor:     params.EfficacyFloor,
		}

		// Metabolite series exists only for prodrugs; non-prodrugs omit it
		// entirely rather than emitting zeros.
		if params.Prodrug {
			metabolite := conc * (1 - math.Exp(-kmet*t)) * modifier * params.MetaboliteWeight
			point.Metabolite = &metabolite
		}

		sim.Points = append(sim.Points, point)
	}

	if sim.SingularSamples > 0 {
		s.logger.WithFields(logrus.Fields{
			"drug":             params.Drug,
			"phenotype":        phenotype.String(),
			"singular_samples": sim.SingularSamples,
		}).Warn("PK model singular at some samples, used zero fallback")
	}

	return sim
}

// windowFor snaps five half-lives upward to the nearest readable window.
func windowFor(halfLifeHours float64) float64 {
	target := 5 * halfLifeHours
	for _, w := range pkWindows {
		if target <= w {
			return w
		}
	}
	return pkWindows[len(pkWindows)-1]
}

func cloneSimulation(sim *domain.PKSimulation) *domain.PKSimulation {
	out := *sim
	out.Points = make([]domain.PKSeriesPoint, len(sim.Points))
	for i, p := range sim.Points {
		out.Points[i] = p
		if p.Metabolite != nil {
			m := *p.Metabolite
			out.Points[i].Metabolite = &m
		}
	}
	return &out
}
