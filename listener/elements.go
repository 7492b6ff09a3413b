package listener

// BPMN element types of flow nodes that report start and end events.
const (
	ElementTypeUserTask               = "userTask"
	ElementTypeBoundaryEvent          = "boundaryEvent"
	ElementTypeBusinessRuleTask       = "businessRuleTask"
	ElementTypeCallActivity           = "callActivity"
	ElementTypeCompensateEvent        = "compensateEventDefinition"
	ElementTypeEndEvent               = "endEvent"
	ElementTypeEventBasedGateway      = "eventBasedGateway"
	ElementTypeExclusiveGateway       = "exclusiveGateway"
	ElementTypeInclusiveGateway       = "inclusiveGateway"
	ElementTypeIntermediateCatchEvent = "intermediateCatchEvent"
	ElementTypeIntermediateThrowEvent = "intermediateThrowEvent"
	ElementTypeManualTask             = "manualTask"
	ElementTypeParallelGateway        = "parallelGateway"
	ElementTypeReceiveTask            = "receiveTask"
	ElementTypeScriptTask             = "scriptTask"
	ElementTypeSendTask               = "sendTask"
	ElementTypeServiceTask            = "serviceTask"
	ElementTypeStartEvent             = "startEvent"
	ElementTypeSubProcess             = "subProcess"
	ElementTypeTask                   = "task"
	ElementTypeTransaction            = "transaction"

	// ElementTypeSequenceFlow only reports take events.
	ElementTypeSequenceFlow = "sequenceFlow"

	// ElementTypeMultiInstanceBody is never listened to, the executions inside the loop report themselves.
	ElementTypeMultiInstanceBody = "multiInstanceBody"
)

var flowNodeTypes = map[string]struct{}{
	ElementTypeUserTask:               {},
	ElementTypeBoundaryEvent:          {},
	ElementTypeBusinessRuleTask:       {},
	ElementTypeCallActivity:           {},
	ElementTypeCompensateEvent:        {},
	ElementTypeEndEvent:               {},
	ElementTypeEventBasedGateway:      {},
	ElementTypeExclusiveGateway:       {},
	ElementTypeInclusiveGateway:       {},
	ElementTypeIntermediateCatchEvent: {},
	ElementTypeIntermediateThrowEvent: {},
	ElementTypeManualTask:             {},
	ElementTypeParallelGateway:        {},
	ElementTypeReceiveTask:            {},
	ElementTypeScriptTask:             {},
	ElementTypeSendTask:               {},
	ElementTypeServiceTask:            {},
	ElementTypeStartEvent:             {},
	ElementTypeSubProcess:             {},
	ElementTypeTask:                   {},
	ElementTypeTransaction:            {},
}

// Listens reports whether elements of the given BPMN type get an execution listener attached.
func Listens(elementType string) bool {
	if elementType == ElementTypeSequenceFlow {
		return true
	}

	_, ok := flowNodeTypes[elementType]
	return ok
}

// ListensTo reports whether an element of the given type reports the given event.
func ListensTo(elementType string, event EventName) bool {
	switch event {
	case EventStart, EventEnd:
		_, ok := flowNodeTypes[elementType]
		return ok
	case EventTake:
		return elementType == ElementTypeSequenceFlow
	}

	return false
}
