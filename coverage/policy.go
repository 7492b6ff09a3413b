package coverage

import "fmt"

// EndWithoutStartPolicy decides what happens to a flow node end notification for which no running occurrence with
// the same activity instance id was recorded. This happens when the start was delivered out of order, or when it
// was filtered by an exclusion that changed between the two notifications.
type EndWithoutStartPolicy int

const (
	// EndWithoutStartRecord files a standalone terminal record with a zero start counter.
	EndWithoutStartRecord EndWithoutStartPolicy = iota

	// EndWithoutStartDrop ignores the notification.
	EndWithoutStartDrop

	// EndWithoutStartFail returns ErrNoMatchingStart.
	EndWithoutStartFail
)

func (p EndWithoutStartPolicy) String() string {
	switch p {
	case EndWithoutStartRecord:
		return "record"
	case EndWithoutStartDrop:
		return "drop"
	case EndWithoutStartFail:
		return "fail"
	}

	return fmt.Sprintf("EndWithoutStartPolicy(%d)", int(p))
}

func ParseEndWithoutStartPolicy(s string) (EndWithoutStartPolicy, error) {
	switch s {
	case "", "record":
		return EndWithoutStartRecord, nil
	case "drop":
		return EndWithoutStartDrop, nil
	case "fail":
		return EndWithoutStartFail, nil
	}

	return EndWithoutStartRecord, fmt.Errorf("unknown end-without-start policy %q", s)
}

// EndOutcome describes how an end notification was filed.
type EndOutcome int

const (
	// EndMatched means the end was reconciled with the running occurrence.
	EndMatched EndOutcome = iota + 1

	// EndRecordedWithoutStart means a standalone terminal record was filed.
	EndRecordedWithoutStart

	// EndDroppedWithoutStart means the end had no running occurrence and was ignored.
	EndDroppedWithoutStart

	// EndInstantaneous means the element has no duration, so there was nothing to reconcile.
	EndInstantaneous

	// EndDuplicate means the occurrence had already ended and the notification was ignored.
	EndDuplicate
)

func (o EndOutcome) String() string {
	switch o {
	case EndMatched:
		return "matched"
	case EndRecordedWithoutStart:
		return "recorded_without_start"
	case EndDroppedWithoutStart:
		return "dropped_without_start"
	case EndInstantaneous:
		return "instantaneous"
	case EndDuplicate:
		return "duplicate"
	}

	return fmt.Sprintf("EndOutcome(%d)", int(o))
}
