package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	sim "github.com/barbershop-sim/barbershop-sim/sim"
)

// prompter reads the counts that were not given on the command line or in
// the config file, one line per value.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// count prints a prompt for field and parses the next input line.
func (p *prompter) count(field string) (int, error) {
	fmt.Fprintf(p.out, "Enter the number of %s: ", field)
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("reading %s: %w", field, err)
	}
	return sim.ParseCount(field, line)
}
