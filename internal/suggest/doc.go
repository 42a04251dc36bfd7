// Package suggest turns a model reply into a typed suggestion.
//
// Replies are unreliable: JSON may be fenced, wrapped in prose, missing its
// braces, nested under an unexpected key, or use another kind's field names.
// Parse tries a structural decode first and falls back to field-by-field
// regex extraction; a reply is accepted once a title is found. Failures are
// returned as *MalformedError carrying the raw text so the caller can run
// ErrorFollowup, a single corrective round.
package suggest
