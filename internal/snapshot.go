package internal

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Snapshot is the persisted form of a Dispatch. It holds the matched rule and
// the dispatch state, never the request or the collaborators, which are bound
// again by Restore.
type Snapshot struct {
	Rule       RuleSpec       `json:"rule"`
	Kind       Kind           `json:"kind"`
	Target     any            `json:"target"`
	Convert    *bool          `json:"convert,omitempty"`
	Params     map[string]any `json:"params,omitempty"`
	Code       int            `json:"code,omitempty"`
	Controller string         `json:"controller,omitempty"`
	Action     string         `json:"action,omitempty"`
}

// Snapshot captures the persistable state of d.
// Callback targets and values the snapshot encoding cannot carry yield
// ErrNotSerializable.
func (d *Dispatch) Snapshot() (Snapshot, error) {
	if d.strategy.Kind() == KindCallback || isFunc(d.target) {
		return Snapshot{}, fmt.Errorf("%w: %s target", ErrNotSerializable, d.strategy.Kind())
	}
	if _, err := encodeValue(d.target); err != nil {
		return Snapshot{}, fmt.Errorf("target: %w", err)
	}
	if _, err := encodeValues(d.params); err != nil {
		return Snapshot{}, err
	}

	s := Snapshot{
		Rule:       ruleSpecOf(d.rule),
		Kind:       d.strategy.Kind(),
		Target:     d.target,
		Params:     d.Params(),
		Code:       d.code,
		Controller: d.controller,
		Action:     d.action,
	}
	if d.convert != nil {
		v := *d.convert
		s.Convert = &v
	}
	return s, nil
}

// snapshotFields is Snapshot without its JSON methods.
type snapshotFields Snapshot

// MarshalJSON stores Target and Params with their Go types.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	target, err := encodeValue(s.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	params, err := encodeValues(s.Params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		snapshotFields
		Target typedValue            `json:"target"`
		Params map[string]typedValue `json:"params,omitempty"`
	}{snapshotFields(s), target, params})
}

// UnmarshalJSON restores Target and Params to the types they were saved with.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var aux struct {
		snapshotFields
		Target typedValue            `json:"target"`
		Params map[string]typedValue `json:"params,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	target, err := aux.Target.decode()
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	params, err := decodeValues(aux.Params)
	if err != nil {
		return err
	}

	*s = Snapshot(aux.snapshotFields)
	s.Target = target
	s.Params = params
	return nil
}

// Restore rebuilds a Dispatch from s and binds it to req and env.
// resolve maps the persisted kind back to a strategy.
func Restore(s Snapshot, req *Request, env Env, resolve StrategyResolver) (*Dispatch, error) {
	strategy, err := resolve(s.Kind)
	if err != nil {
		return nil, err
	}
	if strategy == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}

	d := New(strategy, req, NewRule(s.Rule), s.Target, s.Params, s.Code, env)
	if s.Convert != nil {
		d.Convert(*s.Convert)
	}
	d.Resolve(s.Controller, s.Action)
	return d, nil
}

// Rebind attaches d to a new request and collaborators.
func (d *Dispatch) Rebind(req *Request, env Env) *Dispatch {
	d.request = req
	d.env = env.withDefaults()
	return d
}

func ruleSpecOf(r Rule) RuleSpec {
	if m, ok := r.(*MatchedRule); ok {
		return m.spec()
	}

	cfg := make(map[string]string, 3)
	for _, name := range []string{ConfigDefaultReturnType, ConfigDefaultAjaxReturn, ConfigURLConvert} {
		if v := r.Config(name); v != "" {
			cfg[name] = v
		}
	}
	return RuleSpec{
		Pattern:   r.Pattern(),
		Route:     r.Route(),
		Options:   r.Options(),
		Vars:      r.Vars(),
		Config:    cfg,
		SkipAfter: !r.DoAfter(),
	}
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

func loggableTarget(v any) any {
	if isFunc(v) {
		return reflect.TypeOf(v).String()
	}
	return v
}
