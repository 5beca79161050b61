package engine

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/surgestack/surgecast-engine/internal/baseline"
	"github.com/surgestack/surgecast-engine/internal/models"
	"github.com/surgestack/surgecast-engine/internal/utils"
)

// RulesModelVersion stamps predictions produced by the deterministic engine.
const RulesModelVersion = "surgecast-rules-v1"

const (
	aqiImpactPerBand   = 0.15
	coldImpact         = 0.10
	humidityImpact     = 0.08
	festivalImpactMin  = 0.25
	festivalImpactMax  = 0.40
	pollutionImpactMin = 0.30
	pollutionImpactMax = 0.50
	otherEventCap      = 0.25

	// Non-event impacts shrink by this multiplier each day past day 1.
	defaultDecay = 0.85

	intervalBase     = 0.15
	intervalPerExtra = 0.03
	intervalCap      = 0.25
)

// Forecaster turns a signal, a city baseline, and upcoming events into a
// multi-day surge prediction using fixed percentage-impact rules.
type Forecaster struct {
	logger *slog.Logger
	decay  float64
}

// NewForecaster constructs a rule-based forecaster.
func NewForecaster(logger *slog.Logger) *Forecaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Forecaster{logger: logger, decay: defaultDecay}
}

type impactFactor struct {
	name        string
	fraction    float64
	description string
	event       *models.ScheduledEvent
}

// Forecast produces the prediction for one run. horizonDays days are covered
// starting the day after issuedAt.
func (f *Forecaster) Forecast(signal models.SignalReading, base baseline.CityBaseline, events []models.ScheduledEvent, issuedAt time.Time, horizonDays int) models.SurgePrediction {
	if horizonDays <= 0 {
		horizonDays = 7
	}
	if issuedAt.IsZero() {
		issuedAt = time.Now().UTC()
	}

	factors := f.dayOneFactors(signal, events)

	daily := make([]models.DailyPrediction, 0, horizonDays)
	overall := models.RiskLow
	for day := 1; day <= horizonDays; day++ {
		date := utils.DayAfter(issuedAt, day)

		combined := 1.0
		active := 0
		for _, fac := range factors {
			fraction := f.fractionOn(fac, day, date)
			if fraction <= 0 {
				continue
			}
			combined *= 1 + fraction
			active++
		}

		cases := int(math.Round(float64(base.DailyCases) * combined))
		u := intervalBase
		if active > 1 {
			u += intervalPerExtra * float64(active-1)
		}
		if u > intervalCap {
			u = intervalCap
		}

		risk := models.RiskForSurgeFactor(float64(cases) / float64(base.DailyCases))
		overall = models.MaxRisk(overall, risk)

		daily = append(daily, models.DailyPrediction{
			Day:            day,
			Date:           date,
			PredictedCases: cases,
			LowerBound:     int(math.Floor(float64(cases) * (1 - u))),
			UpperBound:     int(math.Ceil(float64(cases) * (1 + u))),
			RiskLevel:      risk,
			Confidence:     1 - u,
		})
	}

	dayOne := daily[0]
	surgeFactor := float64(dayOne.PredictedCases) / float64(base.DailyCases)

	contributing := contributingFactors(factors)
	conditions := likelyConditions(factors, contributing, dayOne.PredictedCases)

	return models.SurgePrediction{
		City:                base.City,
		IssuedAt:            issuedAt,
		HorizonDays:         horizonDays,
		Daily:               daily,
		BaselineCases:       base.DailyCases,
		SurgeFactor:         surgeFactor,
		OverallRisk:         overall,
		ContributingFactors: contributing,
		LikelyConditions:    conditions,
		Summary:             summarize(base.City, surgeFactor, overall, contributing),
		ModelVersion:        RulesModelVersion,
	}
}

// dayOneFactors evaluates the impact rules against the current signal.
func (f *Forecaster) dayOneFactors(signal models.SignalReading, events []models.ScheduledEvent) []impactFactor {
	factors := make([]impactFactor, 0, 4)

	// Every full 50-point band above AQI 100 adds a fixed respiratory impact.
	if bands := math.Floor((signal.AQI - 100) / 50); bands > 0 {
		factors = append(factors, impactFactor{
			name:        "AQI Level",
			fraction:    aqiImpactPerBand * bands,
			description: fmt.Sprintf("AQI %.0f (%s)", signal.AQI, signal.AQICategory),
		})
	}
	if signal.TemperatureC < 15 {
		factors = append(factors, impactFactor{
			name:        "Cold Weather",
			fraction:    coldImpact,
			description: fmt.Sprintf("temperature %.1f°C", signal.TemperatureC),
		})
	}
	if signal.HumidityPct > 80 {
		factors = append(factors, impactFactor{
			name:        "High Humidity",
			fraction:    humidityImpact,
			description: fmt.Sprintf("humidity %.0f%%", signal.HumidityPct),
		})
	}
	for i := range events {
		ev := events[i]
		fraction := eventImpact(ev)
		if fraction <= 0 {
			continue
		}
		factors = append(factors, impactFactor{
			name:        fmt.Sprintf("Event: %s", ev.Name),
			fraction:    fraction,
			description: fmt.Sprintf("%s, historical surge factor %.2f", ev.Type, ev.HistoricalSurgeFactor),
			event:       &ev,
		})
	}
	return factors
}

// fractionOn returns a factor's impact for the given day. Event impacts
// persist while the event window covers the day; everything else decays.
func (f *Forecaster) fractionOn(fac impactFactor, day int, date time.Time) float64 {
	if fac.event != nil {
		if fac.event.ActiveOn(date) {
			return fac.fraction
		}
		return 0
	}
	return fac.fraction * math.Pow(f.decay, float64(day-1))
}

// eventImpact maps an event to its fractional surge impact, scaling the
// configured range linearly by historicalSurgeFactor clamped to [1, 2].
func eventImpact(ev models.ScheduledEvent) float64 {
	switch ev.Type {
	case models.EventFestival:
		return scaleRange(ev.HistoricalSurgeFactor, festivalImpactMin, festivalImpactMax)
	case models.EventPollution:
		return scaleRange(ev.HistoricalSurgeFactor, pollutionImpactMin, pollutionImpactMax)
	default:
		// Types without a calibrated range contribute their raw historical
		// surplus, capped.
		if ev.HistoricalSurgeFactor <= 1 {
			return 0
		}
		return math.Min(ev.HistoricalSurgeFactor-1, otherEventCap)
	}
}

func scaleRange(factor, lo, hi float64) float64 {
	if factor <= 1 {
		return lo
	}
	if factor >= 2 {
		return hi
	}
	return lo + (hi-lo)*(factor-1)
}

// contributingFactors normalizes day-1 impacts against the largest one.
func contributingFactors(factors []impactFactor) []models.ContributingFactor {
	largest := 0.0
	for _, fac := range factors {
		if fac.fraction > largest {
			largest = fac.fraction
		}
	}
	if largest == 0 {
		return nil
	}
	out := make([]models.ContributingFactor, 0, len(factors))
	for _, fac := range factors {
		out = append(out, models.ContributingFactor{
			Factor:      fac.name,
			ImpactScore: fac.fraction / largest,
			Description: fac.description,
		})
	}
	return out
}

// likelyConditions maps active impact types to expected health conditions.
// Probabilities are proportional to impact scores and sum to at most 1.
func likelyConditions(factors []impactFactor, contributing []models.ContributingFactor, dayOneCases int) []models.LikelyCondition {
	if len(contributing) == 0 {
		return nil
	}

	type slot struct {
		conditions []string
		score      float64
	}
	slots := make([]slot, 0, len(factors))
	total := 0.0
	for i, fac := range factors {
		score := contributing[i].ImpactScore
		var conds []string
		switch {
		case fac.name == "AQI Level":
			conds = []string{"Respiratory Infections", "Asthma Exacerbation"}
		case fac.name == "High Humidity":
			conds = []string{"Viral Infections"}
		case fac.name == "Cold Weather":
			conds = []string{"Influenza-like Illness"}
		case fac.event != nil:
			conds = []string{"Crowd-related Trauma"}
		}
		if len(conds) == 0 {
			continue
		}
		slots = append(slots, slot{conditions: conds, score: score})
		total += score
	}
	if total == 0 {
		return nil
	}

	out := make([]models.LikelyCondition, 0, len(slots)+1)
	for _, s := range slots {
		// A factor mapping to multiple conditions splits its share evenly.
		probability := s.score / total / float64(len(s.conditions))
		for _, cond := range s.conditions {
			out = append(out, models.LikelyCondition{
				Condition:     cond,
				Probability:   probability,
				ExpectedCases: int(math.Round(probability * float64(dayOneCases))),
			})
		}
	}
	return out
}

func summarize(city string, surgeFactor float64, risk models.RiskLevel, factors []models.ContributingFactor) string {
	names := make([]string, 0, len(factors))
	for _, f := range factors {
		names = append(names, f.Factor)
	}
	if len(names) == 0 {
		return fmt.Sprintf("%s: no elevated risk factors, expected load near baseline.", city)
	}
	return fmt.Sprintf("%s: %s risk, %.0f%% above baseline. Drivers: %s.",
		city, risk, (surgeFactor-1)*100, strings.Join(names, ", "))
}

// RespiratoryExpectedCases sums the expected cases of respiratory conditions,
// the sizing input for oxygen and nebulizer supplies.
func RespiratoryExpectedCases(p models.SurgePrediction) int {
	total := 0
	for _, c := range p.LikelyConditions {
		switch c.Condition {
		case "Respiratory Infections", "Asthma Exacerbation":
			total += c.ExpectedCases
		}
	}
	return total
}
