// Command svcctl installs and removes service entries in the service
// control manager's database.
//
//	svcctl install <name> <path>   create <name> running <path> and start it
//	svcctl remove <name>           delete <name>
//
// Failures are reported on stderr; the exit status is always 0.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"servicehost/internal/scm"
)

func main() {
	// scm logs at info; keep the tool's own diagnostics the only output.
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	run(os.Args[1:], os.Stderr, scm.DefaultBackend())
}

func run(args []string, stderr io.Writer, b scm.Backend) {
	switch {
	case len(args) == 3 && args[0] == "install":
		install(args[1], args[2], stderr, b)
	case len(args) == 2 && args[0] == "remove":
		remove(args[1], stderr, b)
	default:
		usage(stderr)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: svcctl install <name> <path>")
	fmt.Fprintln(w, "       svcctl remove <name>")
}

func install(name, path string, stderr io.Writer, b scm.Backend) {
	m := scm.ConnectWith(b, "")
	if !m.OK() {
		fmt.Fprintf(stderr, "can't open service manager: %v\n", m.Err())
		return
	}
	defer m.Close()

	s := m.Service(name)
	defer s.Close()
	if err := s.Install(name, name, path); err != nil {
		fmt.Fprintf(stderr, "can't install %s: %v\n", name, err)
		return
	}
	if err := s.Start(); err != nil {
		fmt.Fprintf(stderr, "can't start %s: %v\n", name, err)
	}
}

func remove(name string, stderr io.Writer, b scm.Backend) {
	m := scm.ConnectWith(b, "")
	if !m.OK() {
		fmt.Fprintf(stderr, "can't open service manager: %v\n", m.Err())
		return
	}
	defer m.Close()

	s := m.Service(name)
	defer s.Close()
	if !s.OK() {
		fmt.Fprintf(stderr, "can't remove %s: %v\n", name, s.Err())
		return
	}
	if err := s.Destroy(); err != nil {
		fmt.Fprintf(stderr, "can't remove %s: %v\n", name, err)
	}
}
