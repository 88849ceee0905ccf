package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	DefaultBinary = "pdflatex"
	DefaultPasses = 2
)

// Compiler turns a .tex file into a PDF written next to it in outputDir.
type Compiler interface {
	Compile(ctx context.Context, texPath, outputDir string) error
}

// CompileError carries the compiler output of a failed run.
type CompileError struct {
	Err    error
	Output string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("latex compilation failed: %v\n%s", e.Err, tail(e.Output, 40))
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// LocalCompiler runs a LaTeX binary on the host.
type LocalCompiler struct {
	Binary string
}

// NewLocalCompiler creates a compiler for binary, defaulting to pdflatex.
func NewLocalCompiler(binary string) *LocalCompiler {
	if binary == "" {
		binary = DefaultBinary
	}
	return &LocalCompiler{Binary: binary}
}

// Compile runs the binary in non-interactive mode.
func (c *LocalCompiler) Compile(ctx context.Context, texPath, outputDir string) error {
	path, err := exec.LookPath(c.Binary)
	if err != nil {
		return fmt.Errorf("latex compiler %q not found: %w", c.Binary, err)
	}

	cmd := exec.CommandContext(ctx, path, compileArgs(texPath, outputDir)...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &CompileError{Err: err, Output: out.String()}
	}
	return nil
}

func compileArgs(texPath, outputDir string) []string {
	return []string{
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory", outputDir,
		texPath,
	}
}

func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}

// IsCompileError reports whether err came from the LaTeX compiler itself.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// Engines accepted by NewCompiler.
const (
	EngineLocal  = "local"
	EngineDocker = "docker"
)

// NewCompiler returns the compiler for engine. image is used only by the
// docker engine.
func NewCompiler(engine, binary, image string) (Compiler, error) {
	switch engine {
	case "", EngineLocal:
		return NewLocalCompiler(binary), nil
	case EngineDocker:
		return NewDockerCompiler(DockerConfig{Image: image, Binary: binary})
	default:
		return nil, fmt.Errorf("unknown render engine: %q", engine)
	}
}
