// Package httpclient builds the per-task HTTP requests and the shared client
// used to execute them.
//
// [RequestBuilder.Build] is pure data assembly: starting from the configured
// base headers it conditionally attaches query parameters (GET only), the
// JSON body, a bearer Authorization header, the chained session token, and
// an Origin header. Malformed combinations (params requested on a non-GET
// method) are silently omitted rather than failing the task.
//
// [NewClient] returns an [net/http.Client] with connection pooling sized for
// many concurrent workers hammering a single host.
package httpclient
