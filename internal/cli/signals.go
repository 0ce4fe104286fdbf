package cli

import (
	"os"
	"syscall"
)

// interruptSignals end a download run gracefully. Windows never delivers
// SIGTERM to a console process, so listening for it there is harmless.
func interruptSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
