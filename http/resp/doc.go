/*
The resp package provides a high-level API for responding to HTTP requests
with an easy way to configure the responses application-wide.

resp provides these ways of responding to an HTTP request:
  - writing plain text
  - rendering HTML templates
  - rendering JSON data
  - redirecting

Each response method accepts [Fn] functional options declaring how the response is formed.
*/
package resp
