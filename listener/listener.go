package listener

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowcov/go-flowcov/core"
	"github.com/flowcov/go-flowcov/log"
)

type EventName string

const (
	EventStart EventName = "start"
	EventEnd   EventName = "end"
	EventTake  EventName = "take"

	// EventEvaluate is reported for decision evaluations, never through Notify
	EventEvaluate EventName = "evaluate"
)

// Execution is a notification of the process engine about a flow node or transition.
type Execution struct {
	EventName           EventName
	ProcessDefinitionID string

	// ActivityInstanceID, ElementID, and ElementType are set for start and end events
	ActivityInstanceID string
	ElementID          string
	ElementType        string

	// TransitionID is set for take events
	TransitionID string
}

// DecisionEvaluation is a notification about an evaluated decision table.
type DecisionEvaluation struct {
	DecisionDefinitionKey string
	MatchedRuleIDs        []string
}

// Recorder receives the converted elements. *runstate.RunState and *runstate.Session implement it.
type Recorder interface {
	AddCoveredElement(e core.Element) error
	EndCoveredElement(e core.Element) error
	AddCoveredRules(rules []core.CoveredDmnRule) error
}

type Options struct {
	Logger *slog.Logger

	// SkipUnlistenedElements drops flow node events of element types that Listens does not accept.
	SkipUnlistenedElements bool
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithSkipUnlistenedElements() Option {
	return func(o *Options) {
		o.SkipUnlistenedElements = true
	}
}

// ExecutionListener converts engine notifications into covered elements.
type ExecutionListener struct {
	recorder Recorder
	resolver DefinitionResolver
	options  Options
	logger   *slog.Logger
}

func NewExecutionListener(recorder Recorder, resolver DefinitionResolver, opts ...Option) *ExecutionListener {
	options := Options{
		Logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &ExecutionListener{
		recorder: recorder,
		resolver: resolver,
		options:  options,
		logger:   options.Logger,
	}
}

func (l *ExecutionListener) Notify(ctx context.Context, execution Execution) error {
	elementID := execution.ElementID
	if execution.EventName == EventTake {
		elementID = execution.TransitionID
	}

	switch execution.EventName {
	case EventStart, EventEnd:
		if l.options.SkipUnlistenedElements && !ListensTo(execution.ElementType, execution.EventName) {
			l.logger.Debug("skipping unlistened element",
				log.EventNameKey, string(execution.EventName),
				log.ElementIDKey, execution.ElementID,
			)
			return nil
		}

	case EventTake:

	default:
		return newNotifyError(execution.EventName, elementID, fmt.Errorf("%w: %q", ErrUnknownEvent, execution.EventName))
	}

	key, err := l.resolver.ProcessDefinitionKey(ctx, execution.ProcessDefinitionID)
	if err != nil {
		return newNotifyError(execution.EventName, elementID, fmt.Errorf("resolving process definition %s: %w", execution.ProcessDefinitionID, err))
	}

	switch execution.EventName {
	case EventStart:
		err = l.recorder.AddCoveredElement(
			core.NewCoveredFlowNode(key, execution.ElementID, execution.ActivityInstanceID, execution.ElementType))

	case EventEnd:
		err = l.recorder.EndCoveredElement(
			core.NewCoveredFlowNode(key, execution.ElementID, execution.ActivityInstanceID, execution.ElementType))

	case EventTake:
		err = l.recorder.AddCoveredElement(core.NewCoveredSequenceFlow(key, execution.TransitionID))
	}

	if err != nil {
		return newNotifyError(execution.EventName, elementID, err)
	}

	return nil
}

func (l *ExecutionListener) NotifyDecision(ctx context.Context, evaluation DecisionEvaluation) error {
	if len(evaluation.MatchedRuleIDs) == 0 {
		return nil
	}

	rules := make([]core.CoveredDmnRule, 0, len(evaluation.MatchedRuleIDs))
	for _, id := range evaluation.MatchedRuleIDs {
		rules = append(rules, core.CoveredDmnRule{
			DecisionDefinitionKey: evaluation.DecisionDefinitionKey,
			RuleID:                id,
		})
	}

	if err := l.recorder.AddCoveredRules(rules); err != nil {
		return newNotifyError(EventEvaluate, evaluation.DecisionDefinitionKey, err)
	}

	return nil
}
