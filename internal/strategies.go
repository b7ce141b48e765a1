package internal

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"

	"golang.org/x/text/cases"

	"github.com/dmitrymomot/routeforge/pkg/htmx"
	"github.com/dmitrymomot/routeforge/pkg/view"
)

// Action handles a controller route. It may return a *Response, data to be
// encoded, or nil after writing to d.Output().
type Action func(ctx context.Context, d *Dispatch) (any, error)

// Controller maps action names to actions.
type Controller map[string]Action

// Controllers maps controller names to controllers.
type Controllers map[string]Controller

// ControllerStrategy dispatches "controller@action" targets.
type ControllerStrategy struct {
	Controllers Controllers
}

func (ControllerStrategy) Kind() Kind { return KindController }

func (s ControllerStrategy) Exec(ctx context.Context, d *Dispatch) (ExecResult, error) {
	controller, action := d.Resolved()
	if controller == "" {
		var err error
		if controller, action, err = splitControllerTarget(d.Target()); err != nil {
			return nil, err
		}
		if d.CaseConvert() {
			fold := cases.Fold()
			controller, action = fold.String(controller), fold.String(action)
		}
		d.Resolve(controller, action)
	}

	ctrl, ok := lookup(s.Controllers, controller, d.CaseConvert())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownController, controller)
	}
	act, ok := lookup(ctrl, action, d.CaseConvert())
	if !ok {
		return nil, fmt.Errorf("%w: %s@%s", ErrUnknownAction, controller, action)
	}

	v, err := act(ctx, d)
	if err != nil {
		return nil, err
	}
	return ResultOf(v), nil
}

func splitControllerTarget(target any) (string, string, error) {
	s, ok := target.(string)
	if !ok {
		return "", "", fmt.Errorf("%w: controller target must be a string, got %T", ErrInvalidTarget, target)
	}
	sep := "@"
	if !strings.Contains(s, sep) {
		sep = "/"
	}
	controller, action, found := strings.Cut(strings.Trim(s, "/"), sep)
	if !found || controller == "" || action == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTarget, s)
	}
	return controller, action, nil
}

// lookup finds name in m, comparing case-folded keys when fold is set.
func lookup[V any](m map[string]V, name string, fold bool) (V, bool) {
	if v, ok := m[name]; ok || !fold {
		return v, ok
	}
	folder := cases.Fold()
	for k, v := range m {
		if folder.String(k) == name {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// Callback handles a closure route. out is the dispatch output sink.
type Callback func(ctx context.Context, r *Request, params map[string]any, out io.Writer) (any, error)

// CallbackStrategy dispatches Callback targets.
type CallbackStrategy struct{}

func (CallbackStrategy) Kind() Kind { return KindCallback }

func (CallbackStrategy) Exec(ctx context.Context, d *Dispatch) (ExecResult, error) {
	var fn Callback
	switch t := d.Target().(type) {
	case Callback:
		fn = t
	case func(context.Context, *Request, map[string]any, io.Writer) (any, error):
		fn = t
	default:
		return nil, fmt.Errorf("%w: callback target is %T", ErrInvalidTarget, t)
	}

	v, err := fn(ctx, d.Request(), d.StrategyParams(), d.Output())
	if err != nil {
		return nil, err
	}
	return ResultOf(v), nil
}

// RedirectStrategy redirects to the target URL. ":name" segments in the URL are
// replaced by route variables. The status is the route code, or 301.
// HTMX requests get an HX-Redirect header instead.
type RedirectStrategy struct{}

func (RedirectStrategy) Kind() Kind { return KindRedirect }

func (RedirectStrategy) Exec(_ context.Context, d *Dispatch) (ExecResult, error) {
	url, ok := d.Target().(string)
	if !ok || url == "" {
		return nil, fmt.Errorf("%w: redirect target is %T", ErrInvalidTarget, d.Target())
	}

	req := d.Request()
	url = req.Expand(url)

	code := d.Code()
	if code == 0 {
		code = http.StatusMovedPermanently
	}
	status, header := htmx.Redirect(req.HTTP(), url, code)
	return ResponseResult{Response: NewResponse(status, nil, header)}, nil
}

// ViewStrategy renders the target view with route variables and params as data.
// The view is written to the output sink.
type ViewStrategy struct {
	Renderer view.Renderer
}

func (ViewStrategy) Kind() Kind { return KindView }

func (s ViewStrategy) Exec(ctx context.Context, d *Dispatch) (ExecResult, error) {
	if s.Renderer == nil {
		return nil, ErrViewNotConfigured
	}
	name, ok := d.Target().(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: view target is %T", ErrInvalidTarget, d.Target())
	}

	data := make(map[string]any)
	for k, v := range d.Request().RouteVars() {
		data[k] = v
	}
	maps.Copy(data, d.StrategyParams())

	if err := s.Renderer.Render(ctx, d.Output(), name, data); err != nil {
		return nil, err
	}

	if d.Code() != 0 && d.Code() != http.StatusOK {
		content, _ := d.Output().Drain()
		resp, err := d.Responses().Create(content, TypeHTML, d.Code())
		if err != nil {
			return nil, err
		}
		return ResponseResult{Response: resp}, nil
	}
	return EmptyResult{}, nil
}

// ResponseStrategy answers with the target as a static body, using the route
// code as status.
type ResponseStrategy struct{}

func (ResponseStrategy) Kind() Kind { return KindResponse }

func (ResponseStrategy) Exec(_ context.Context, d *Dispatch) (ExecResult, error) {
	code := d.Code()
	if code == 0 {
		code = http.StatusOK
	}
	resp, err := d.Responses().Create(d.Target(), TypeAuto, code)
	if err != nil {
		return nil, err
	}
	return ResponseResult{Response: resp}, nil
}

var (
	_ Strategy = ControllerStrategy{}
	_ Strategy = CallbackStrategy{}
	_ Strategy = RedirectStrategy{}
	_ Strategy = ViewStrategy{}
	_ Strategy = ResponseStrategy{}
)
