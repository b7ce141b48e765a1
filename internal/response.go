package internal

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"maps"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"
)

// Response types understood by the default factory.
const (
	TypeAuto = ""
	TypeJSON = "json"
	TypeXML  = "xml"
	TypeHTML = "html"
	TypeText = "text"
)

// Response is the outgoing payload built by the dispatch stage.
type Response struct {
	data   any
	header http.Header
	body   []byte
	status int
}

// NewResponse creates a response with an already-encoded body.
func NewResponse(status int, body []byte, header http.Header) *Response {
	if header == nil {
		header = make(http.Header)
	}
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{status: status, body: body, header: header}
}

// Status returns the HTTP status code.
func (r *Response) Status() int { return r.status }

// Header returns the response headers. The map is live.
func (r *Response) Header() http.Header { return r.header }

// Body returns the encoded body.
func (r *Response) Body() []byte { return r.body }

// Data returns the value the body was encoded from, if any.
func (r *Response) Data() any { return r.data }

// SetStatus overrides the status code.
func (r *Response) SetStatus(code int) *Response {
	r.status = code
	return r
}

// MergeHeaders sets each header that the response does not already carry.
func (r *Response) MergeHeaders(h map[string]string) *Response {
	for name, value := range h {
		if r.header.Get(name) == "" {
			r.header.Set(name, value)
		}
	}
	return r
}

// Write emits the response. Bodies are skipped for 204 and 304.
func (r *Response) Write(w http.ResponseWriter) error {
	dst := w.Header()
	for name, values := range r.header {
		dst[name] = append([]string(nil), values...)
	}
	if len(r.body) > 0 && dst.Get("Content-Length") == "" {
		dst.Set("Content-Length", strconv.Itoa(len(r.body)))
	}

	w.WriteHeader(r.status)
	if r.status == http.StatusNoContent || r.status == http.StatusNotModified {
		return nil
	}
	_, err := w.Write(r.body)
	return err
}

// clone returns a copy safe to hand to another request.
func (r *Response) clone() *Response {
	return &Response{
		status: r.status,
		header: r.header.Clone(),
		body:   bytes.Clone(r.body),
		data:   r.data,
	}
}

// ResponseFactory builds responses from raw data and a type hint.
type ResponseFactory interface {
	Create(data any, typ string, status int) (*Response, error)
}

// Encoder encodes data into a body and its content type.
type Encoder func(data any) (body []byte, contentType string, err error)

// Encoders is the default ResponseFactory: a registry of encoders by type name.
type Encoders map[string]Encoder

// DefaultEncoders returns encoders for json, xml, html, text and auto ("").
func DefaultEncoders() Encoders {
	return Encoders{
		TypeAuto: encodeAuto,
		TypeJSON: encodeJSON,
		TypeXML:  encodeXML,
		TypeHTML: encodeString("text/html; charset=utf-8"),
		TypeText: encodeString("text/plain; charset=utf-8"),
	}
}

// With returns a copy of e with typ registered.
func (e Encoders) With(typ string, enc Encoder) Encoders {
	out := maps.Clone(e)
	out[typ] = enc
	return out
}

// Create encodes data with the encoder registered for typ.
func (e Encoders) Create(data any, typ string, status int) (*Response, error) {
	enc, ok := e[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, typ)
	}

	body, contentType, err := enc(data)
	if err != nil {
		return nil, err
	}

	resp := NewResponse(status, body, nil)
	resp.data = data
	if contentType != "" {
		resp.header.Set("Content-Type", contentType)
	}
	return resp, nil
}

func encodeJSON(data any) ([]byte, string, error) {
	const ct = "application/json; charset=utf-8"

	if raw, ok := data.(json.RawMessage); ok {
		if !gjson.ValidBytes(raw) {
			return nil, "", fmt.Errorf("routeforge: invalid raw JSON payload")
		}
		return raw, ct, nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return nil, "", fmt.Errorf("routeforge: encode json: %w", err)
	}
	return body, ct, nil
}

func encodeXML(data any) ([]byte, string, error) {
	body, err := xml.Marshal(data)
	if err != nil {
		return nil, "", fmt.Errorf("routeforge: encode xml: %w", err)
	}
	return append([]byte(xml.Header), body...), "application/xml; charset=utf-8", nil
}

func encodeString(contentType string) Encoder {
	return func(data any) ([]byte, string, error) {
		switch v := data.(type) {
		case nil:
			return nil, contentType, nil
		case string:
			return []byte(v), contentType, nil
		case []byte:
			return v, contentType, nil
		case fmt.Stringer:
			return []byte(v.String()), contentType, nil
		default:
			return fmt.Appendf(nil, "%v", v), contentType, nil
		}
	}
}

// encodeAuto writes strings and bytes verbatim as HTML and everything else as JSON.
// Empty content carries no Content-Type.
func encodeAuto(data any) ([]byte, string, error) {
	switch v := data.(type) {
	case nil:
		return nil, "", nil
	case string:
		if v == "" {
			return nil, "", nil
		}
		return encodeString("text/html; charset=utf-8")(v)
	case []byte:
		if len(v) == 0 {
			return nil, "", nil
		}
		return encodeString("text/html; charset=utf-8")(v)
	case json.RawMessage:
		return encodeJSON(v)
	default:
		return encodeJSON(v)
	}
}

var _ ResponseFactory = Encoders(nil)
