package coverage

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every error signaling that an event or query referenced an unregistered test method or
// flow model. These indicate a broken integration, e.g. events arriving before the method coverage was initialized.
var ErrNotFound = errors.New("not found")

// ErrMethodCoverageFinished is returned when adding to a method coverage after it was finished.
var ErrMethodCoverageFinished = errors.New("method coverage already finished")

// ErrNoMatchingStart is returned for an end notification without a prior start when EndWithoutStartFail is used.
var ErrNoMatchingStart = errors.New("no matching start for ended flow node")

type ErrTestMethodNotFound struct {
	TestMethodName string
}

func (e *ErrTestMethodNotFound) Error() string {
	return fmt.Sprintf("coverage for test method %q not found", e.TestMethodName)
}

func (e *ErrTestMethodNotFound) Is(target error) bool {
	return target == ErrNotFound
}

type ErrProcessDefinitionNotFound struct {
	TestMethodName       string
	ProcessDefinitionKey string
}

func (e *ErrProcessDefinitionNotFound) Error() string {
	return fmt.Sprintf("process definition %q not deployed for test method %q", e.ProcessDefinitionKey, e.TestMethodName)
}

func (e *ErrProcessDefinitionNotFound) Is(target error) bool {
	return target == ErrNotFound
}

type ErrDecisionDefinitionNotFound struct {
	TestMethodName        string
	DecisionDefinitionKey string
}

func (e *ErrDecisionDefinitionNotFound) Error() string {
	return fmt.Sprintf("decision definition %q not deployed for test method %q", e.DecisionDefinitionKey, e.TestMethodName)
}

func (e *ErrDecisionDefinitionNotFound) Is(target error) bool {
	return target == ErrNotFound
}
