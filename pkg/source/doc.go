// Package source fetches option lists from remote sources.
//
// A source is addressed by an opaque locator (usually a URL) and must answer
// a GET request with a JSON body of the form
//
//	{"values": [["1", "Alice"], ["2", "Bob"]]}
//
// Any other shape is reported as ErrMalformedResponse; transport failures
// and non-2xx statuses are reported as ErrFetchFailed. Both arrive wrapped in
// *Error so callers can recover the source locator.
package source
