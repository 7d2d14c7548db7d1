// Package console provides the print and scan routines behind OUT and IN.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
)

var ErrBadInput = errors.New("input is not a number")

// FormatValue renders v the way OUT prints it.
func FormatValue(v float64) string {
	return fmt.Sprintf("%f\n", v)
}

func parseValue(word string) (float64, error) {
	v, err := strconv.ParseFloat(word, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadInput, word)
	}
	return v, nil
}

// Stream reads whitespace separated numbers from r and prints to w.
type Stream struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewStream(r io.Reader, w io.Writer) *Stream {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &Stream{in: sc, out: w}
}

func (s *Stream) Print(v float64) error {
	_, err := io.WriteString(s.out, FormatValue(v))
	return err
}

func (s *Stream) Scan() (float64, error) {
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	return parseValue(s.in.Text())
}

// Readline prompts for input on a terminal with line editing.
type Readline struct {
	rl      *readline.Instance
	out     io.Writer
	pending []string
}

func NewReadline(prompt string, w io.Writer) (*Readline, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	return &Readline{rl: rl, out: w}, nil
}

func (r *Readline) Print(v float64) error {
	_, err := io.WriteString(r.out, FormatValue(v))
	return err
}

func (r *Readline) Scan() (float64, error) {
	for len(r.pending) == 0 {
		line, err := r.rl.Readline()
		if err != nil {
			return 0, err
		}
		r.pending = strings.Fields(line)
	}
	word := r.pending[0]
	r.pending = r.pending[1:]
	return parseValue(word)
}

func (r *Readline) Close() error { return r.rl.Close() }

// IO is the print/scan pair handed to the runtimes.
type IO interface {
	Print(v float64) error
	Scan() (float64, error)
}

// New picks readline when stdin is a terminal and a plain stream otherwise.
// The returned closer must be called when done.
func New(stdin io.Reader, stdout io.Writer, interactive bool) (IO, func() error, error) {
	if interactive && readline.DefaultIsTerminal() {
		rl, err := NewReadline("? ", stdout)
		if err != nil {
			return nil, nil, err
		}
		return rl, rl.Close, nil
	}
	return NewStream(stdin, stdout), func() error { return nil }, nil
}

// Script is an in-memory IO: Scan consumes Inputs, Print appends to Outputs.
type Script struct {
	Inputs  []float64
	Outputs []float64
}

func (s *Script) Print(v float64) error {
	s.Outputs = append(s.Outputs, v)
	return nil
}

func (s *Script) Scan() (float64, error) {
	if len(s.Inputs) == 0 {
		return 0, io.EOF
	}
	v := s.Inputs[0]
	s.Inputs = s.Inputs[1:]
	return v, nil
}
