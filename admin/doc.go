/*
Package admin serves the administration site mounted under /admin/.

A [*Site] keeps an ordered registry of [ModelAdmin]s and exposes:

	GET  /admin/          index listing registered models and their record counts
	GET  /admin/login/    login form
	POST /admin/login/    authenticate a staff user
	POST /admin/logout/   end the session
	GET  /admin/{model}/  paginated change list

Every page but login and logout requires an active staff user.
Anonymous browsers are redirected to the login form carrying a "next" param;
JSON clients receive 401.

Failed logins are counted per username and IP address by a [Throttle].
Once the limit is reached further attempts are refused with 429 until the window lapses.
*/
package admin
