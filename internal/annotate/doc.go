// Package annotate asks an external referee CLI to critique the newest voice
// dump in a notebook.
//
// Runner executes the configured command with the prompt on stdin and reads
// the final answer from the file passed via --output-last-message. A run that
// hits its timeout but already wrote a non-empty answer file counts as a
// success. Referee composes the prompt from notebook context and turns
// failures into a placeholder section that names the manual rerun command.
package annotate
