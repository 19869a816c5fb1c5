package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StartupErrorFileName is written by WriteStartupErrorFile.
const StartupErrorFileName = "startup-error.log"

// WriteStartupErrorFile records err in logDir/startup-error.log, replacing
// any earlier content. It is used before the logger is up, when the only
// other trace of a failed service start is the Event Log.
func WriteStartupErrorFile(logDir string, err error) {
	_ = os.MkdirAll(logDir, 0755)

	f, ferr := os.Create(filepath.Join(logDir, StartupErrorFileName))
	if ferr != nil {
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "[%s] STARTUP ERROR\n%v\n", time.Now().Format("2006-01-02 15:04:05"), err)
}
