// Package cleanup removes the extracted corpus once a run has finished.
//
// Removal is best-effort: failures are logged as warnings with an event type,
// hint, and impact, collected in the Result, and never returned as an error.
package cleanup
