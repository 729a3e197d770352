package catalog

// Phase is the loading state of a Manager.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoadingInitial
	PhaseLoadingNextPage
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoadingInitial:
		return "loading"
	case PhaseLoadingNextPage:
		return "loading next page"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loading reports whether a page request is in flight.
func (p Phase) Loading() bool {
	return p == PhaseLoadingInitial || p == PhaseLoadingNextPage
}

type event int

const (
	evStartInitial event = iota
	evStartNext
	evSucceed
	evFail
)

// transition returns the phase reached from p on ev. ok is false when the
// event is not accepted in p; callers drop the request in that case.
func transition(p Phase, ev event, canLoadMore bool) (next Phase, ok bool) {
	switch p {
	case PhaseIdle:
		if ev == evStartInitial {
			return PhaseLoadingInitial, true
		}
	case PhaseLoadingInitial, PhaseLoadingNextPage:
		switch ev {
		case evSucceed:
			return PhaseLoaded, true
		case evFail:
			return PhaseFailed, true
		}
	case PhaseLoaded, PhaseFailed:
		switch ev {
		case evStartInitial:
			return PhaseLoadingInitial, true
		case evStartNext:
			if canLoadMore {
				return PhaseLoadingNextPage, true
			}
		}
	}
	return p, false
}
