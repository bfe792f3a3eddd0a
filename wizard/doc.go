// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package wizard implements the voting wizard as a state machine.

A Machine is built for every request from two inputs: the step in the
URL (?step=) and the tab's saved selection. Guards run in Enter:

	team without a country      -> country
	country known               -> load teams, drop a team not in the list
	country or team entered     -> has-voted check, found -> confirm
	result entered              -> best-effort lookup of the own vote
	confirm without a vote      -> country

Navigation goes through a Navigator. The HTTP handlers use URLNavigator
and answer with a 303 to its Target.

Submit inserts the vote at most once per tab at a time. Flights is shared
by every machine so two requests from one tab cannot both insert. A
duplicate-key failure is treated as success: the stored vote is adopted.
*/
package wizard
