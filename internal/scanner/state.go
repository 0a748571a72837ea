package scanner

// phase is a step of the per-check retry state machine:
//
//	start -> attempting(n) -> success
//	                       -> attempting(n+1)   while n < max
//	                       -> exhausted         when n == max
//
// success and exhausted are terminal; exhausted is followed by classification.
type phase int

const (
	phaseAttempting phase = iota + 1
	phaseSuccess
	phaseExhausted
)

func (p phase) String() string {
	switch p {
	case phaseAttempting:
		return "attempting"
	case phaseSuccess:
		return "success"
	case phaseExhausted:
		return "exhausted"
	default:
		return "start"
	}
}

// outcome is the result of one attempt.
type outcome struct {
	message string
	ok      bool
}

// checkState is the state of one check. Transitions never mutate the
// receiver.
type checkState struct {
	lastError   string
	phase       phase
	attempt     int
	maxAttempts int
}

func start(maxAttempts int) checkState {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return checkState{phase: phaseAttempting, attempt: 1, maxAttempts: maxAttempts}
}

// next applies the outcome of the current attempt.
func (s checkState) next(o outcome) checkState {
	if s.phase != phaseAttempting {
		return s
	}

	if o.ok {
		s.phase = phaseSuccess
		s.lastError = ""
		return s
	}

	s.lastError = o.message
	if s.attempt >= s.maxAttempts {
		s.phase = phaseExhausted
		return s
	}
	s.attempt++
	return s
}

// abort gives up before the current attempt is made. The attempt counter is
// rolled back to the number of attempts actually performed.
func (s checkState) abort(reason string) checkState {
	if s.phase != phaseAttempting {
		return s
	}
	if s.attempt > 1 {
		s.attempt--
	}
	if s.lastError == "" {
		s.lastError = reason
	}
	s.phase = phaseExhausted
	return s
}
