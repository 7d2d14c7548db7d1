//go:build unicorn
// +build unicorn

package main

import (
	"github.com/colorfulnotion/hostjit/jit"
	"github.com/colorfulnotion/hostjit/log"
)

func runSandbox(code *jit.Code, io jit.HostIO, maxSteps uint64) error {
	res, err := jit.RunSandbox(code, io, maxSteps)
	if err != nil {
		return err
	}
	log.Debug(log.ExecModule, "sandbox done", "data", len(res.Data))
	return nil
}
