package emulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/colorfulnotion/hostjit/log"
)

// DefaultExternal is the emulator binary used in non-native mode.
const DefaultExternal = "./cpu"

// Builtin selects the in-process Machine instead of an external binary.
const Builtin = "builtin"

var ErrExternalFailed = errors.New("external emulator failed")

// RunExternal runs the emulator binary on file, passing the standard streams through.
func RunExternal(ctx context.Context, binary, file string, stdin io.Reader, stdout, stderr io.Writer) error {
	if binary == "" {
		binary = DefaultExternal
	}
	cmd := exec.CommandContext(ctx, binary, file)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	log.Debug(log.EmuModule, "running external emulator", "binary", binary, "file", file)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %s exited with %d", ErrExternalFailed, binary, exitErr.ExitCode())
		}
		return fmt.Errorf("%w: %s: %v", ErrExternalFailed, binary, err)
	}
	return nil
}
