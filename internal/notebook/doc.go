// Package notebook reads and appends the per-topic Markdown notebooks that
// receive transcripts and referee commentary.
//
// A notebook is a plain UTF-8 file: a "# Title" header followed by sections
// headed "## Voice Dump — <timestamp>" or "## AI Commentary — <date>",
// separated by horizontal rules. Every voice dump embeds an HTML comment
// carrying the recording's content id so replays can be detected without
// consulting the ledger.
//
// Appends are guarded by an advisory lock on a hidden sibling file so two
// quill processes never interleave a read-check-append on the same notebook.
package notebook
