package models

import "time"

// PipelineStep names one stage of a pipeline run.
type PipelineStep string

const (
	StepFetchSignal    PipelineStep = "fetch_signal"
	StepFetchEvents    PipelineStep = "fetch_events"
	StepForecast       PipelineStep = "forecast"
	StepRecommend      PipelineStep = "recommend"
	StepEvaluateAlerts PipelineStep = "evaluate_alerts"
	StepAdvisory       PipelineStep = "advisory"
)

// StepOutcome is the terminal state of one step within a run.
type StepOutcome string

const (
	StepSucceeded StepOutcome = "succeeded"
	StepSkipped   StepOutcome = "skipped"
	StepFailed    StepOutcome = "failed"
)

// StepResult reports one step's outcome, the ids of any records it produced,
// and the error kind when it failed.
type StepResult struct {
	Step      PipelineStep `json:"step"`
	Outcome   StepOutcome  `json:"outcome"`
	RecordIDs []string     `json:"record_ids,omitempty"`
	ErrorKind string       `json:"error_kind,omitempty"`
	Detail    string       `json:"detail,omitempty"`
}

// PipelineResult summarises one orchestration run for a city.
type PipelineResult struct {
	City      string        `json:"city"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Steps     []StepResult  `json:"steps"`
}

// StepOutcomeFor returns the recorded outcome for a step, or StepSkipped if
// the step never ran.
func (r PipelineResult) StepOutcomeFor(step PipelineStep) StepOutcome {
	for _, s := range r.Steps {
		if s.Step == step {
			return s.Outcome
		}
	}
	return StepSkipped
}

// Succeeded reports whether every recorded step succeeded or was skipped.
func (r PipelineResult) Succeeded() bool {
	for _, s := range r.Steps {
		if s.Outcome == StepFailed {
			return false
		}
	}
	return true
}
