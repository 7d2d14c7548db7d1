//go:build !unicorn
// +build !unicorn

package main

import (
	"errors"

	"github.com/colorfulnotion/hostjit/jit"
)

var errNoSandbox = errors.New("--sandbox needs a build with -tags unicorn")

func runSandbox(code *jit.Code, io jit.HostIO, maxSteps uint64) error {
	return errNoSandbox
}
