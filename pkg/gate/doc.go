// Package gate holds form submission until every deferred option load has
// settled.
//
// A Completion counts the outstanding source loads of one session and
// resolves after the last continuation (success or failure) has run. Each
// form that owns a managed widget gets one FormGate, a small state machine
// that moves Pending -> Ready when the completion resolves and Ready ->
// Submitted when a submission succeeds. Submitting while Pending surfaces a
// notice and does nothing else.
package gate
