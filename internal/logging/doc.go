// Package logging writes structured JSON logs to a size-rotated file under
// ~/.docsync/logs/, optionally teed to stderr, and reads them back for
// `docsync logs`.
package logging
