//go:build !windows

package flags

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh/terminal"
)

// askPassword prompts on the controlling terminal, which may differ from
// stdin when the request body is piped in.
func askPassword(userName string) (string, error) {
	fd := syscall.Stdin
	if !terminal.IsTerminal(fd) {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return "", errors.Wrap(err, "opening terminal to ask password")
		}
		defer tty.Close()
		fd = int(tty.Fd())
	}
	return readPassword(fd, userName)
}

func readPassword(fd int, userName string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for user %s: ", userName)
	password, err := terminal.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "reading password from terminal")
	}
	return string(password), nil
}
