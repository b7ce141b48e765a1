package internal_test

import (
	"encoding/json"
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routeforge/internal"
)

func TestEncoders_Create(t *testing.T) {
	t.Parallel()

	enc := internal.DefaultEncoders()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		resp, err := enc.Create(map[string]int{"a": 1}, internal.TypeJSON, http.StatusOK)
		require.NoError(t, err)
		require.JSONEq(t, `{"a":1}`, string(resp.Body()))
		require.Equal(t, map[string]int{"a": 1}, resp.Data())
	})

	t.Run("raw json is validated", func(t *testing.T) {
		t.Parallel()

		resp, err := enc.Create(json.RawMessage(`{"ok":true}`), internal.TypeJSON, http.StatusOK)
		require.NoError(t, err)
		require.Equal(t, `{"ok":true}`, string(resp.Body()))

		_, err = enc.Create(json.RawMessage(`{"ok":`), internal.TypeJSON, http.StatusOK)
		require.Error(t, err)
	})

	t.Run("xml", func(t *testing.T) {
		t.Parallel()

		type item struct {
			XMLName xml.Name `xml:"item"`
			ID      int      `xml:"id"`
		}
		resp, err := enc.Create(item{ID: 7}, internal.TypeXML, http.StatusOK)
		require.NoError(t, err)
		require.Equal(t, xml.Header+"<item><id>7</id></item>", string(resp.Body()))
		require.Equal(t, "application/xml; charset=utf-8", resp.Header().Get("Content-Type"))
	})

	t.Run("text and html", func(t *testing.T) {
		t.Parallel()

		resp, err := enc.Create("plain", internal.TypeText, http.StatusOK)
		require.NoError(t, err)
		require.Equal(t, "text/plain; charset=utf-8", resp.Header().Get("Content-Type"))

		resp, err = enc.Create(42, internal.TypeHTML, http.StatusOK)
		require.NoError(t, err)
		require.Equal(t, "42", string(resp.Body()))
	})

	t.Run("auto", func(t *testing.T) {
		t.Parallel()

		resp, err := enc.Create("", internal.TypeAuto, http.StatusNoContent)
		require.NoError(t, err)
		require.Empty(t, resp.Header().Get("Content-Type"))
		require.Equal(t, http.StatusNoContent, resp.Status())

		resp, err = enc.Create("<b>hi</b>", internal.TypeAuto, http.StatusOK)
		require.NoError(t, err)
		require.Equal(t, "text/html; charset=utf-8", resp.Header().Get("Content-Type"))

		resp, err = enc.Create([]int{1}, internal.TypeAuto, http.StatusOK)
		require.NoError(t, err)
		require.Equal(t, "[1]", string(resp.Body()))
	})

	t.Run("unsupported type", func(t *testing.T) {
		t.Parallel()

		_, err := enc.Create(1, "csv", http.StatusOK)
		require.ErrorIs(t, err, internal.ErrUnsupportedType)
	})

	t.Run("custom encoder", func(t *testing.T) {
		t.Parallel()

		csv := enc.With("csv", func(data any) ([]byte, string, error) {
			return []byte("a,b"), "text/csv", nil
		})
		resp, err := csv.Create(nil, "csv", http.StatusOK)
		require.NoError(t, err)
		require.Equal(t, "a,b", string(resp.Body()))

		_, err = enc.Create(nil, "csv", http.StatusOK)
		require.ErrorIs(t, err, internal.ErrUnsupportedType)
	})
}

func TestResponse_Write(t *testing.T) {
	t.Parallel()

	t.Run("writes status headers and body", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		resp := internal.NewResponse(http.StatusCreated, []byte("done"), http.Header{"X-A": {"1"}})
		require.NoError(t, resp.Write(rec))

		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "done", rec.Body.String())
		require.Equal(t, "1", rec.Header().Get("X-A"))
		require.Equal(t, "4", rec.Header().Get("Content-Length"))
	})

	t.Run("no body for 204", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		require.NoError(t, internal.NewResponse(http.StatusNoContent, []byte("x"), nil).Write(rec))
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Body.String())
	})

	t.Run("zero status is 200", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, http.StatusOK, internal.NewResponse(0, nil, nil).Status())
	})

	t.Run("merge headers keeps existing values", func(t *testing.T) {
		t.Parallel()

		resp := internal.NewResponse(http.StatusOK, nil, http.Header{"X-A": {"keep"}})
		resp.MergeHeaders(map[string]string{"X-A": "drop", "X-B": "add"})
		require.Equal(t, "keep", resp.Header().Get("X-A"))
		require.Equal(t, "add", resp.Header().Get("X-B"))
	})
}

func TestResultOf(t *testing.T) {
	t.Parallel()

	resp := internal.NewResponse(http.StatusOK, nil, nil)

	require.Equal(t, internal.EmptyResult{}, internal.ResultOf(nil))
	require.Equal(t, internal.EmptyResult{}, internal.ResultOf((*internal.Response)(nil)))
	require.Equal(t, internal.ResponseResult{Response: resp}, internal.ResultOf(resp))
	require.Equal(t, internal.DataResult{Data: 5}, internal.ResultOf(5))
	require.Equal(t, internal.DataResult{Data: "x"}, internal.ResultOf(internal.DataResult{Data: "x"}))
}

func TestOutputBuffer(t *testing.T) {
	t.Parallel()

	out := internal.NewOutputBuffer()
	_, err := out.Write([]byte("hello"))
	require.NoError(t, err)

	got, err := out.Drain()
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	_, err = out.Drain()
	require.ErrorIs(t, err, internal.ErrOutputDrained)
}
