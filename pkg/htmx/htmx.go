package htmx

import "net/http"

const (
	HeaderHXRequest  = "HX-Request"
	HeaderHXBoosted  = "HX-Boosted"
	HeaderHXRedirect = "HX-Redirect"

	// HeaderXRequestedWith is set by jQuery-style XHR clients.
	HeaderXRequestedWith = "X-Requested-With"
)

// IsHTMX returns true if the request originated from HTMX.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderHXRequest) == "true"
}

// IsBoosted returns true for hx-boost navigation requests.
func IsBoosted(r *http.Request) bool {
	return r.Header.Get(HeaderHXBoosted) == "true"
}

// IsAjax reports whether the request came from a script rather than a page
// navigation: either an XMLHttpRequest or a non-boosted HTMX request.
func IsAjax(r *http.Request) bool {
	if r.Header.Get(HeaderXRequestedWith) == "XMLHttpRequest" {
		return true
	}
	return IsHTMX(r) && !IsBoosted(r)
}

// Redirect returns the status code and headers for a redirect to targetURL.
// HTMX needs a 2xx response to act on HX-Redirect, so HTMX requests get 200
// with the header instead of a 3xx Location. Both forms carry Vary: HX-Request.
func Redirect(r *http.Request, targetURL string, status int) (int, http.Header) {
	h := make(http.Header)
	h.Set("Vary", HeaderHXRequest)
	if IsHTMX(r) {
		h.Set(HeaderHXRedirect, targetURL)
		return http.StatusOK, h
	}
	h.Set("Location", targetURL)
	return status, h
}
