// Package verifytest reports verify failures through testing.TB.
package verifytest

import (
	"github.com/funvibe/exprassert/pkg/verify"
	"testing"
)

// That runs preds against subject and reports the first failure with
// t.Error. Invalid predicates are reported too. It returns whether every
// predicate held.
func That(t testing.TB, subject any, preds ...verify.Predicate) bool {
	t.Helper()
	return Session(t, verify.NewSession().Add(preds...), subject)
}

// Session runs s against subject, reporting like That.
func Session(t testing.TB, s *verify.Session, subject any) bool {
	t.Helper()
	f, err := s.Run(subject)
	if err != nil {
		t.Errorf("%v", err)
		return false
	}
	if f != nil {
		t.Errorf("\n%s", verify.Format(f))
		return false
	}
	return true
}

// Require is That followed by t.FailNow on failure.
func Require(t testing.TB, subject any, preds ...verify.Predicate) {
	t.Helper()
	if !That(t, subject, preds...) {
		t.FailNow()
	}
}
