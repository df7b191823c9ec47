package completeness

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/AndyXT/doccheck/internal/types"
)

// Verdict is a compiler collaborator's judgment of one code block.
type Verdict struct {
	Status types.CompilationStatus
	Detail string
}

// Compiler is the external collaborator that judges code blocks. The
// checker's logic is tested against a double; the shipped implementation
// shells out to a per-language command.
type Compiler interface {
	// Supports reports whether a checker exists for the language.
	Supports(language string) bool

	// Check judges a block within the caller's deadline. It must return
	// one of the three terminal states and never blocks past the
	// context: an expired deadline or unreachable toolchain maps to
	// StatusTimeout.
	Check(ctx context.Context, language, source string) Verdict
}

// fileExtensions maps languages to the source file suffix their
// toolchains expect.
var fileExtensions = map[string]string{
	"rust": ".rs",
	"c":    ".c",
	"toml": ".toml",
}

// ExecCompiler runs a configured command per language against a temp
// file holding the block source.
type ExecCompiler struct {
	// Commands maps language to the command line; the source file path
	// is appended as the final argument
	Commands map[string][]string
	// Timeout bounds each invocation when the caller's context has no
	// earlier deadline
	Timeout time.Duration
}

// NewExecCompiler creates the exec-backed compiler collaborator.
func NewExecCompiler(commands map[string][]string, timeout time.Duration) *ExecCompiler {
	return &ExecCompiler{Commands: commands, Timeout: timeout}
}

// Supports reports whether a command is configured for the language.
func (e *ExecCompiler) Supports(language string) bool {
	_, ok := e.Commands[language]
	return ok
}

// Check writes the source to a temp file and runs the language's command
// against it. Exit zero is Valid, nonzero is Invalid with the combined
// output as detail, and a deadline or spawn failure is Timeout.
func (e *ExecCompiler) Check(ctx context.Context, language, source string) Verdict {
	argv, ok := e.Commands[language]
	if !ok {
		return Verdict{Status: types.StatusInvalid, Detail: "no checker configured for language " + language}
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "doccheck-block-*")
	if err != nil {
		return Verdict{Status: types.StatusTimeout, Detail: "cannot stage source: " + err.Error()}
	}
	defer os.RemoveAll(dir)

	ext := fileExtensions[language]
	if ext == "" {
		ext = ".txt"
	}
	srcPath := filepath.Join(dir, "block"+ext)
	if err := os.WriteFile(srcPath, []byte(source), 0o644); err != nil {
		return Verdict{Status: types.StatusTimeout, Detail: "cannot stage source: " + err.Error()}
	}

	args := append(append([]string(nil), argv[1:]...), srcPath)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err = cmd.Run()
	switch {
	case ctx.Err() != nil:
		return Verdict{Status: types.StatusTimeout, Detail: "checker exceeded deadline"}
	case err == nil:
		return Verdict{Status: types.StatusValid}
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Verdict{Status: types.StatusInvalid, Detail: truncate(output.String(), 2000)}
		}
		// The toolchain itself is unreachable; per the error taxonomy
		// this is an external service failure, mapped to Timeout.
		return Verdict{Status: types.StatusTimeout, Detail: "checker unavailable: " + err.Error()}
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n...[truncated]"
}
