/*
Package domain contains the core types of the workflow interpreter.

A workflow is a bullet outline between two marker lines of a Markdown document.
Inline directives, written as comment markers, set and unset variables, request
input from the user and guard blocks of steps behind conditions. This package is
kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Directive: A closed set of instructions parsed from single lines.
  - Markers: The configurable comment vocabulary of those directives.
  - Step: A read-only view of the workflow at its current position.
  - Session: The persisted snapshot of an interactive session.
  - ActionRequest: What the host should render for the current step.
*/
package domain
