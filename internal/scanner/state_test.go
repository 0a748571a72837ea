package scanner

import "testing"

func TestCheckState_SuccessOnFirstAttempt(t *testing.T) {
	st := start(2).next(outcome{ok: true})

	if st.phase != phaseSuccess {
		t.Errorf("phase = %v, want %v", st.phase, phaseSuccess)
	}
	if st.attempt != 1 {
		t.Errorf("attempt = %d, want 1", st.attempt)
	}
	if st.lastError != "" {
		t.Errorf("lastError = %q, want empty", st.lastError)
	}
}

func TestCheckState_RetryThenSuccess(t *testing.T) {
	st := start(2).next(outcome{message: "connection refused"})

	if st.phase != phaseAttempting {
		t.Fatalf("phase = %v, want %v", st.phase, phaseAttempting)
	}
	if st.attempt != 2 {
		t.Fatalf("attempt = %d, want 2", st.attempt)
	}

	st = st.next(outcome{ok: true})
	if st.phase != phaseSuccess {
		t.Errorf("phase = %v, want %v", st.phase, phaseSuccess)
	}
	if st.lastError != "" {
		t.Errorf("lastError = %q, want empty after success", st.lastError)
	}
}

func TestCheckState_ExhaustedKeepsLastError(t *testing.T) {
	st := start(2).
		next(outcome{message: "first"}).
		next(outcome{message: "second"})

	if st.phase != phaseExhausted {
		t.Fatalf("phase = %v, want %v", st.phase, phaseExhausted)
	}
	if st.attempt != 2 {
		t.Errorf("attempt = %d, want 2", st.attempt)
	}
	if st.lastError != "second" {
		t.Errorf("lastError = %q, want second", st.lastError)
	}
}

func TestCheckState_TerminalStatesIgnoreOutcomes(t *testing.T) {
	done := start(1).next(outcome{message: "boom"})
	after := done.next(outcome{ok: true})

	if after != done {
		t.Errorf("next() on %v changed state: %+v -> %+v", done.phase, done, after)
	}

	ok := start(1).next(outcome{ok: true})
	if ok.next(outcome{message: "late"}) != ok {
		t.Error("next() on success changed state")
	}
}

func TestCheckState_MaxAttemptsBound(t *testing.T) {
	for _, limit := range []int{1, 2, 3, 5} {
		st := start(limit)
		attempts := 0
		for st.phase == phaseAttempting {
			attempts++
			st = st.next(outcome{message: "fail"})
		}
		if attempts != limit {
			t.Errorf("max=%d: made %d attempts", limit, attempts)
		}
		if st.attempt != limit {
			t.Errorf("max=%d: attempt = %d", limit, st.attempt)
		}
	}
}

func TestCheckState_ZeroMaxMeansOneAttempt(t *testing.T) {
	st := start(0)
	if st.maxAttempts != 1 {
		t.Errorf("maxAttempts = %d, want 1", st.maxAttempts)
	}
}

func TestCheckState_Abort(t *testing.T) {
	st := start(3).next(outcome{message: "refused"})
	st = st.abort("context canceled")

	if st.phase != phaseExhausted {
		t.Errorf("phase = %v, want %v", st.phase, phaseExhausted)
	}
	if st.attempt != 1 {
		t.Errorf("attempt = %d, want 1 (only one attempt was made)", st.attempt)
	}
	if st.lastError != "refused" {
		t.Errorf("lastError = %q, want the last attempt error", st.lastError)
	}
}

func TestPhase_String(t *testing.T) {
	tests := map[phase]string{
		0:               "start",
		phaseAttempting: "attempting",
		phaseSuccess:    "success",
		phaseExhausted:  "exhausted",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
