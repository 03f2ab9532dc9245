/*
Package router defines how the app routes HTTP requests to handlers.

[*Router] is a thin wrapper around [mux.Router].
It leverages a standardized data model, a [Route], when registering how requests should be routed.
A path, an optional HTTP method and an optional name comprise a [Route].
An [http.HandlerFunc] is called when a request matches a Route.
Before a request gets to a handler, though,
any middlewares added to the Route are called in the order they appear.

It is often the case that many routes share identical middleware stacks.
It is also often the case that small errors can lead to registering a route incorrectly,
thereby unintentionally exposing a resource.
Thus, a [*Router] provides conveniences for registering many logically associated Routes at once:
HandleRoutes and UnauthedRoutes.

Named routes can be turned back into paths with Reverse.
A Router mounted with a namespace prefixes the names of its routes, so:

	admin := r.Mount("/admin", "admin")
	admin.Handle(router.Route{Path: "/", Name: "index", Handler: index})
	r.Reverse("admin:index") // "/admin/"
*/
package router
