// Package review is the business boundary for the incident review tool. It
// defines the title-similarity grouper, the interactive decision engine and
// its collaborator interfaces (prompt surface, directories, sinks), the
// summary composer, and the review-run record persisted after each run.
package review
