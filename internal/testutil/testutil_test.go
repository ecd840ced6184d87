package testutil

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

// recordingTB captures failures instead of failing the enclosing test.
type recordingTB struct {
	testing.TB
	failed bool
}

func (r *recordingTB) Helper()               {}
func (r *recordingTB) Fatal(...any)          { r.failed = true }
func (r *recordingTB) Fatalf(string, ...any) { r.failed = true }
func (r *recordingTB) Errorf(string, ...any) { r.failed = true }

func TestAssertNoError(t *testing.T) {
	AssertNoError(t, nil)

	rec := &recordingTB{TB: t}
	AssertNoError(rec, errors.New("boom"))
	if !rec.failed {
		t.Error("AssertNoError should fail on non-nil error")
	}
}

func TestAssertError(t *testing.T) {
	AssertError(t, errors.New("boom"))

	rec := &recordingTB{TB: t}
	AssertError(rec, nil)
	if !rec.failed {
		t.Error("AssertError should fail on nil error")
	}
}

func TestAssertVecNear(t *testing.T) {
	AssertVecNear(t, r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 1 + 1e-10, Y: 2, Z: 3}, 1e-9)

	rec := &recordingTB{TB: t}
	AssertVecNear(rec, r3.Vec{}, r3.Vec{Z: 1}, 0.5)
	if !rec.failed {
		t.Error("AssertVecNear should fail on distant vectors")
	}
}

func TestTriples(t *testing.T) {
	got := Triples(r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: -1})
	want := []float64{1, 2, 3, -1, 0, 0}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
