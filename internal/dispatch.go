package internal

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/dmitrymomot/routeforge/pkg/logger"
)

// MiddlewareImporter registers route middleware before the request is handled.
type MiddlewareImporter interface {
	Import(specs []string) error
}

// ResponseCacheRegistrar receives the response cache descriptor for the current request.
type ResponseCacheRegistrar interface {
	SetResponseCache(desc *CacheDescriptor)
}

// Env holds the collaborators a Dispatch works with. Nil fields get defaults:
// a middleware queue with no known middleware, a throwaway cache slot, the
// default encoders, a no-op logger and a fresh output buffer.
type Env struct {
	Middleware MiddlewareImporter
	Cache      ResponseCacheRegistrar
	Responses  ResponseFactory
	Logger     *slog.Logger
	Output     OutputSink
}

func (e Env) withDefaults() Env {
	if e.Middleware == nil {
		e.Middleware = NewMiddlewareQueue(nil)
	}
	if e.Cache == nil {
		e.Cache = &ResponseCacheSlot{}
	}
	if e.Responses == nil {
		e.Responses = DefaultEncoders()
	}
	if e.Logger == nil {
		e.Logger = logger.NewNope()
	}
	if e.Output == nil {
		e.Output = NewOutputBuffer()
	}
	return e
}

// Dispatch turns a matched rule into a response. One Dispatch serves one
// request: call Init once, then Run once. It is not safe for concurrent use.
type Dispatch struct {
	request    *Request
	rule       Rule
	strategy   Strategy
	target     any
	params     map[string]any
	convert    *bool
	header     map[string]string
	controller string
	action     string
	env        Env
	code       int
}

// New creates a Dispatch for a matched rule. target is interpreted by s.
// A bool "convert" entry in params seeds the case-conversion flag.
func New(s Strategy, req *Request, rule Rule, target any, params map[string]any, code int, env Env) *Dispatch {
	d := &Dispatch{
		request:  req,
		rule:     rule,
		strategy: s,
		target:   target,
		params:   maps.Clone(params),
		code:     code,
		env:      env.withDefaults(),
	}
	if d.params == nil {
		d.params = map[string]any{}
	}
	if v, ok := d.params["convert"].(bool); ok {
		d.convert = &v
	}
	return d
}

// Init applies the rule's post-match side effects: it publishes the bound
// variables and route info on the request and processes the route options.
// It does nothing when the rule disables post-match processing.
//
// Init is not idempotent. A second call merges the variables again and
// imports the route middleware again.
func (d *Dispatch) Init() (*Dispatch, error) {
	if !d.rule.DoAfter() {
		return d, nil
	}

	vars := d.rule.Vars()
	d.request.SetRouteVars(vars)
	d.request.SetRouteInfo(RouteInfo{
		Rule:   d.rule.Pattern(),
		Route:  d.rule.Route(),
		Option: d.rule.Options(),
		Var:    vars,
	})

	if err := d.doRouteAfter(); err != nil {
		return d, err
	}
	return d, nil
}

// doRouteAfter handles the middleware, header, cache and append options.
// Each option is independent of the others.
func (d *Dispatch) doRouteAfter() error {
	opts := d.rule.Options()

	if len(opts.Middleware) > 0 {
		if err := d.env.Middleware.Import(opts.Middleware); err != nil {
			return err
		}
	}

	if len(opts.Header) > 0 {
		d.header = maps.Clone(opts.Header)
	}

	if opts.Cache.Enabled() && d.request.IsGet() {
		d.parseRequestCache(opts.Cache)
	}

	if len(opts.Append) > 0 {
		d.request.SetRouteVars(opts.Append)
	}

	return nil
}

// parseRequestCache registers the response cache descriptor for opt.
// Without an explicit key the request URL is used, with "|" read as "/".
func (d *Dispatch) parseRequestCache(opt CacheOption) {
	key := opt.Key
	if key == "" {
		key = strings.ReplaceAll(d.request.URL(), "|", "/")
	}
	d.env.Cache.SetResponseCache(d.request.Cache(key, opt.Expire, opt.Tag))
}

// Run executes the strategy and coerces its result into a response.
// Strategy errors are returned unchanged.
func (d *Dispatch) Run(ctx context.Context) (*Response, error) {
	if after := d.rule.Options().After; after != "" {
		if resp := d.checkAfter(ctx, after); resp != nil {
			return resp, nil
		}
	}

	res, err := d.strategy.Exec(ctx, d)
	if err != nil {
		return nil, err
	}
	return d.autoResponse(res)
}

// checkAfter handles the deprecated "after" route option. Hooks are no longer
// resolved, so it only logs a notice and never returns a response.
func (d *Dispatch) checkAfter(ctx context.Context, after string) *Response {
	logger.Notice(ctx, d.env.Logger,
		"route option \"after\" is deprecated, use route middleware instead",
		slog.String("rule", d.rule.Pattern()),
		slog.String("after", after),
	)
	return nil
}

// autoResponse maps an ExecResult to a response:
// a built response is returned as is, data is encoded with the configured
// return type, and otherwise the output sink is drained.
func (d *Dispatch) autoResponse(res ExecResult) (*Response, error) {
	var (
		resp *Response
		err  error
	)

	switch r := res.(type) {
	case ResponseResult:
		resp = r.Response
	case DataResult:
		if r.Data != nil {
			typ := d.rule.Config(ConfigDefaultReturnType)
			if d.request.IsAjax() {
				typ = d.rule.Config(ConfigDefaultAjaxReturn)
			}
			resp, err = d.env.Responses.Create(r.Data, typ, http.StatusOK)
		}
	}
	if err != nil {
		return nil, err
	}

	if resp == nil {
		content, derr := d.env.Output.Drain()
		if derr != nil {
			content = ""
		}
		status := http.StatusOK
		if content == "" && d.request.IsJSON() {
			status = http.StatusNoContent
		}
		if resp, err = d.env.Responses.Create(content, TypeAuto, status); err != nil {
			return nil, err
		}
	}

	if len(d.header) > 0 {
		resp.MergeHeaders(d.header)
	}
	return resp, nil
}

// Convert overrides the case-conversion flag.
func (d *Dispatch) Convert(convert bool) *Dispatch {
	d.convert = &convert
	return d
}

// CaseConvert reports whether parameter keys and controller names are
// case-folded. An explicit Convert call wins over the url_convert config.
func (d *Dispatch) CaseConvert() bool {
	if d.convert != nil {
		return *d.convert
	}
	v, err := strconv.ParseBool(d.rule.Config(ConfigURLConvert))
	return err == nil && v
}

// Target returns the dispatch target.
func (d *Dispatch) Target() any { return d.target }

// Params returns a copy of the dispatch parameters.
func (d *Dispatch) Params() map[string]any { return maps.Clone(d.params) }

// StrategyParams returns the parameters as strategies see them, with keys
// case-folded when case conversion is on.
func (d *Dispatch) StrategyParams() map[string]any {
	if !d.CaseConvert() {
		return d.Params()
	}
	out := make(map[string]any, len(d.params))
	for k, v := range d.params {
		out[foldKey(k)] = v
	}
	return out
}

func foldKey(s string) string {
	return cases.Fold().String(s)
}

// Kind returns the strategy kind.
func (d *Dispatch) Kind() Kind { return d.strategy.Kind() }

// Request returns the bound request.
func (d *Dispatch) Request() *Request { return d.request }

// Rule returns the matched rule.
func (d *Dispatch) Rule() Rule { return d.rule }

// Code returns the status code override, or 0.
func (d *Dispatch) Code() int { return d.code }

// Header returns the headers captured from the route's header option.
func (d *Dispatch) Header() map[string]string { return maps.Clone(d.header) }

// Output returns the sink strategies may write to instead of returning data.
func (d *Dispatch) Output() OutputSink { return d.env.Output }

// Responses returns the response factory.
func (d *Dispatch) Responses() ResponseFactory { return d.env.Responses }

// Logger returns the dispatch logger.
func (d *Dispatch) Logger() *slog.Logger { return d.env.Logger }

// Resolved returns the controller and action names a controller strategy resolved.
func (d *Dispatch) Resolved() (controller, action string) {
	return d.controller, d.action
}

// Resolve records the controller and action names. They are persisted in snapshots
// so a restored dispatch skips target parsing.
func (d *Dispatch) Resolve(controller, action string) {
	d.controller, d.action = controller, action
}

// LogValue implements slog.LogValuer. Request, rule and collaborators are left out.
func (d *Dispatch) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", string(d.strategy.Kind())),
		slog.Any("target", loggableTarget(d.target)),
		slog.Any("params", d.params),
		slog.Int("code", d.code),
	}
	if d.convert != nil {
		attrs = append(attrs, slog.Bool("convert", *d.convert))
	}
	if d.controller != "" {
		attrs = append(attrs,
			slog.String("controller", d.controller),
			slog.String("action", d.action),
		)
	}
	return slog.GroupValue(attrs...)
}

var _ slog.LogValuer = (*Dispatch)(nil)
