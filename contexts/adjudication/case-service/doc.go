// Package caseservice manages the quasi-judicial case flow: filing with
// protocol assignment, analyst pickup, admissibility ruling, defense and
// evidence intake, appeals, and reopening. Every status transition appends
// an immutable history record; nothing in a case file is ever overwritten.
package caseservice
