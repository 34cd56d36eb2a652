// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Every handler file should use these helpers instead of writing raw
// http.ResponseWriter calls. This ensures every response carries the same
// envelope: {"success":true,"data":...} on success, optionally with
// "meta", and {"success":false,"error":{"code","message","details"}} on
// failure.
package httputil
