// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router wires the handlers into an http.Handler.

Requests pass through, in order:

	CORS      github.com/go-chi/cors, CORS_ORIGINS
	locale    strips /ko or /en, resolves the request locale
	gate      closed, region, webview and auth rules (GATE_ORDER)
	CSRF      github.com/gorilla/csrf on HTML forms, only with CSRF_KEY
	routes    net/http ServeMux method patterns

Usage:

	handler, err := router.NewRouter(router.Deps{...})
	server := http.Server{Handler: handler, Addr: ":3318"}
*/
package router
