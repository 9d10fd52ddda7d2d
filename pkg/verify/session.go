// Package verify checks a subject against a list of predicates and, when one
// does not hold, explains why in terms of the predicate's own source.
//
//	p := verify.Param("p")
//	f, err := verify.Run(order,
//		verify.That(p.Field("Customer").Field("Name").Eq("Ada")),
//		verify.That(verify.Not(p.Field("Lines").Call("IsEmpty"))),
//	)
//
// The same predicates can be written as source text with ParseExpr:
//
//	verify.That(verify.MustParseExpr(`!p.Lines.IsEmpty()`, nil))
//
// A nil *Failure with a nil error means every predicate held.
package verify

import (
	"errors"
	"fmt"
	"github.com/funvibe/exprassert/internal/ast"
	"github.com/funvibe/exprassert/internal/comparator"
	"github.com/funvibe/exprassert/internal/evaluator"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"reflect"
)

// Session is an ordered list of predicates run against one subject at a
// time. Predicates are checked in the order they were added and the first
// failure stops the run. A Session may be run concurrently once fully
// built; Add must not race with Run.
type Session struct {
	preds    []Predicate
	ev       *evaluator.Evaluator
	cmp      *comparator.Comparator
	logger   *zap.Logger
	cfg      *Config
	maxItems int
}

type Option func(*Session)

// WithLogger sets the logger. Passing events are logged at debug level,
// failures at info and invalid predicates at warn.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithConfig applies settings. Without WithLogger, the session logs through
// a logger built from cfg.
func WithConfig(cfg *Config) Option {
	return func(s *Session) {
		s.cfg = cfg
		s.maxItems = cfg.MaxEnumerableItems
	}
}

// WithMaxEnumerableItems caps how many collection items a failure message
// lists. A negative value lists everything.
func WithMaxEnumerableItems(n int) Option {
	return func(s *Session) { s.maxItems = n }
}

// WithAccessor puts a ahead of the built-in member accessors.
func WithAccessor(a Accessor) Option {
	return func(s *Session) { s.ev.AddAccessor(a) }
}

// WithExtension registers fn as method name for receivers whose type string
// (e.g. "time.Duration") or kind (e.g. "slice") is typeOrKind. fn takes the
// receiver as its first argument.
func WithExtension(typeOrKind, name string, fn any) Option {
	return func(s *Session) { s.ev.RegisterExtension(typeOrKind, name, fn) }
}

func NewSession(opts ...Option) *Session {
	ev := evaluator.New()
	s := &Session{
		ev:       ev,
		cmp:      comparator.New(ev),
		maxItems: DefaultConfig().MaxEnumerableItems,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil && s.cfg != nil {
		if l, err := s.cfg.NewLogger(); err == nil {
			s.logger = l
		}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Add appends predicates and returns the session for chaining.
func (s *Session) Add(preds ...Predicate) *Session {
	s.preds = append(s.preds, preds...)
	return s
}

func (s *Session) Predicates() []Predicate {
	return append([]Predicate(nil), s.preds...)
}

// Run checks every predicate against subject. It returns the first Failure,
// or an error when a predicate is invalid (see ConfigError). Predicates after
// the first failure are not evaluated.
func (s *Session) Run(subject any) (*Failure, error) {
	log := s.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("subject", subjectName(subject)),
	)
	env := evaluator.NewSubjectEnvironment(s.ev.Marshaller.ToValue(subject))

	for i, p := range s.preds {
		f, err := s.check(p, subject, env)
		if err != nil {
			log.Warn("invalid predicate", zap.Int("index", i), zap.String("predicate", p.String()), zap.Error(err))
			return nil, fmt.Errorf("predicate %d: %w", i, err)
		}
		if f != nil {
			f.Index = i
			f.Predicate = p.String()
			log.Info("predicate failed",
				zap.Int("index", i),
				zap.String("predicate", f.Predicate),
				zap.Stringer("kind", f.Kind),
				zap.String("message", f.Message),
			)
			return f, nil
		}
		log.Debug("predicate passed", zap.Int("index", i), zap.String("predicate", p.String()))
	}
	return nil, nil
}

// Run checks predicates against subject in a throwaway session.
func Run(subject any, preds ...Predicate) (*Failure, error) {
	return NewSession().Add(preds...).Run(subject)
}

func (s *Session) check(p Predicate, subject any, env *evaluator.Environment) (*Failure, error) {
	switch p := p.(type) {
	case BooleanPredicate:
		return s.checkBoolean(p.Body, subject, env)
	case EqualityPredicate:
		return s.checkEquality(p.Expected, subject, env)
	}
	return nil, evaluator.ConfigErrorf("unsupported predicate %T", p)
}

func (s *Session) checkEquality(expected ast.Expression, subject any, env *evaluator.Environment) (*Failure, error) {
	if expected == nil {
		return nil, evaluator.ConfigErrorf("missing expected value")
	}
	res, err := s.ev.Eval(expected, env)
	if err != nil {
		return s.callFailure(expected, err)
	}
	exp := res.Object().Interface()

	var m *comparator.Mismatch
	if init, ok := expected.(*ast.MemberInit); ok {
		m, err = s.cmp.CompareInit(subject, exp, init)
	} else {
		m, err = s.cmp.Compare(subject, exp)
	}
	if err != nil {
		return s.callFailure(expected, err)
	}
	if m == nil {
		return nil, nil
	}
	target := m.Target
	if target == "" {
		target = subjectName(subject)
	}
	return &Failure{
		Kind:     FailureValue,
		Message:  m.Message,
		Target:   target,
		Expected: m.Expected,
		Actual:   m.Actual,
	}, nil
}

// callFailure turns host errors into a generic failure and passes every
// other error through.
func (s *Session) callFailure(e ast.Expression, err error) (*Failure, error) {
	var callErr *evaluator.CallError
	if !errors.As(err, &callErr) {
		return nil, err
	}
	return &Failure{
		Kind:    FailureGeneric,
		Message: fmt.Sprintf("%s: %v", render(e), callErr),
		Target:  render(e),
		Cause:   callErr,
	}, nil
}

func subjectName(v any) string {
	if v == nil {
		return "nil"
	}
	return ast.TypeName(reflect.TypeOf(v))
}
