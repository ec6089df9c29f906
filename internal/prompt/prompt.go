// Package prompt provides interactive prompt functions for user input.
//
// A Reader prompts on its writer and reads answers line by line. Passwords
// are read without echo when the input is a terminal; otherwise they are
// read as plain lines, which keeps the admin commands scriptable.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/mohamedmalandi/nova/internal/admin"
)

// ErrNoInput is returned when input ends before an answer is given.
var ErrNoInput = errors.New("no input")

// Reader prompts for values.
type Reader struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal file descriptor for hidden input, or -1.
	fd int
}

// NewReader returns a Reader on stdin and stdout.
func NewReader() *Reader {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fd = -1
	}
	return &Reader{in: bufio.NewReader(os.Stdin), out: os.Stdout, fd: fd}
}

// New returns a Reader on arbitrary streams. Passwords are echoed.
func New(in io.Reader, out io.Writer) *Reader {
	return &Reader{in: bufio.NewReader(in), out: out, fd: -1}
}

func (r *Reader) line() (string, error) {
	input, err := r.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		if err == io.EOF {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// String prompts for a value, returning def for an empty answer.
func (r *Reader) String(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(r.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(r.out, "%s: ", label)
	}
	input, err := r.line()
	if err != nil {
		return "", err
	}
	if input == "" {
		return def, nil
	}
	return input, nil
}

// Int prompts for an integer. Unparseable answers yield def.
func (r *Reader) Int(label string, def int) (int, error) {
	input, err := r.String(label, strconv.Itoa(def))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		fmt.Fprintf(r.out, "Not a number, using %d.\n", def)
		return def, nil
	}
	return n, nil
}

// Bool prompts for yes or no.
func (r *Reader) Bool(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(r.out, "%s [%s]: ", label, hint)
	input, err := r.line()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(input) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Email prompts for an email address. Invalid addresses are asked again.
//
// A non-empty def is offered as the default answer.
func (r *Reader) Email(label, def string) (string, error) {
	for {
		input, err := r.String(label, def)
		if err != nil {
			return "", err
		}
		if admin.ValidateEmail(input) == nil {
			return input, nil
		}
		fmt.Fprintln(r.out, "Please enter a valid email address.")
	}
}

// Password prompts for a password. Input is hidden on a terminal.
func (r *Reader) Password(label string) (string, error) {
	fmt.Fprintf(r.out, "%s: ", label)
	if r.fd < 0 {
		return r.line()
	}

	password, err := term.ReadPassword(r.fd)
	fmt.Fprintln(r.out) // Add newline after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// ConfirmPassword prompts the user to confirm a password.
//
// The function will reprompt up to 3 times if passwords don't match.
func (r *Reader) ConfirmPassword(label, password string) error {
	const maxAttempts = 3

	for i := 0; i < maxAttempts; i++ {
		confirm, err := r.Password(label)
		if err != nil {
			return err
		}
		if confirm == password {
			return nil
		}
		if i < maxAttempts-1 {
			fmt.Fprintln(r.out, "Passwords do not match. Please try again.")
		}
	}

	return fmt.Errorf("password confirmation failed after %d attempts", maxAttempts)
}
