// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package i18n holds the ko and en message catalogs.

A Catalog is built once in main and handed to the handlers; there is no
package-level state:

	catalog, err := i18n.New(cfg.DefaultLocale)
	loc := catalog.FromRequest(r)
	loc.T("error.login_required")

Keys missing from a locale fall back to the default locale, then to the key
itself. Accept-Language matching uses golang.org/x/text/language.

Middleware accepts an optional locale prefix on every page path (/en/vote is
served by the /vote route) and remembers an explicit prefix in the lang
cookie.
*/
package i18n
