// Package htmx detects script-originated requests (HTMX and XMLHttpRequest)
// and builds redirects that HTMX can follow.
//
// The dispatch stage uses [IsAjax] to pick the AJAX default return type and
// [Redirect] in redirect routes.
package htmx
