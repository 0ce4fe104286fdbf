// Package exitcode lists the process exit codes ytq returns.
package exitcode

const (
	Success        = 0
	RuntimeFailure = 1 // every item failed, or the run could not start
	InvalidUsage   = 2
	InvalidConfig  = 3
	// MissingDependency means yt-dlp could not be found or doctor failed.
	MissingDependency = 4
	PartialSuccess    = 5 // some items failed
	NoValidURLs       = 6
	// Interrupted follows the shell convention of 128 + SIGINT.
	Interrupted = 130
)
