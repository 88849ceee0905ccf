package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
)

const (
	DefaultImage = "texlive/texlive:latest"
	WorkDir      = "/work"
	Label        = "fireform-render"
)

// DockerCompiler runs the LaTeX binary inside a TeX Live container with the
// output directory bind-mounted.
type DockerCompiler struct {
	cli       *client.Client
	imageName string
	binary    string
	labels    map[string]string
}

// DockerConfig holds configuration for the Docker compiler.
type DockerConfig struct {
	Image  string
	Binary string
	Labels map[string]string // Optional labels for containers (used for test cleanup)
}

// NewDockerCompiler creates a compiler using the Docker daemon from the
// environment.
func NewDockerCompiler(cfg DockerConfig) (*DockerCompiler, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}

	labels := map[string]string{Label: "true"}
	for k, v := range cfg.Labels {
		labels[k] = v
	}

	return &DockerCompiler{
		cli:       cli,
		imageName: cfg.Image,
		binary:    cfg.Binary,
		labels:    labels,
	}, nil
}

// Close closes the Docker client.
func (c *DockerCompiler) Close() error {
	return c.cli.Close()
}

// Compile runs one compiler pass in a throwaway container.
func (c *DockerCompiler) Compile(ctx context.Context, texPath, outputDir string) error {
	if _, err := c.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker is not running: %w", err)
	}
	if err := c.ensureImage(ctx); err != nil {
		return err
	}

	hostDir, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}
	texName, err := filepath.Rel(hostDir, mustAbs(texPath))
	if err != nil {
		return fmt.Errorf("tex file must be inside the output directory: %w", err)
	}

	containerConfig := &container.Config{
		Image:      c.imageName,
		Cmd:        append([]string{c.binary}, compileArgs(filepath.ToSlash(texName), ".")...),
		WorkingDir: WorkDir,
		User:       fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
		Labels:     c.labels,
	}
	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: hostDir,
				Target: WorkDir,
			},
		},
		NetworkMode: "none",
	}

	name := "fireform-latex-" + uuid.New().String()[:8]
	resp, err := c.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, name)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	defer func() {
		_ = c.cli.ContainerRemove(context.WithoutCancel(ctx), resp.ID, container.RemoveOptions{Force: true})
	}()

	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}

	statusCh, errCh := c.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed waiting for container: %w", err)
		}
	case status := <-statusCh:
		if status.StatusCode != 0 {
			logs, _ := c.logs(ctx, resp.ID)
			return &CompileError{
				Err:    fmt.Errorf("container exited with status %d", status.StatusCode),
				Output: logs,
			}
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (c *DockerCompiler) logs(ctx context.Context, containerID string) (string, error) {
	logs, err := c.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get logs: %w", err)
	}
	defer logs.Close()

	var out bytes.Buffer
	if _, err := stdcopy.StdCopy(&out, &out, logs); err != nil && !errors.Is(err, io.EOF) {
		return out.String(), fmt.Errorf("failed to read logs: %w", err)
	}
	return out.String(), nil
}

// ensureImage pulls the TeX Live image if not present.
func (c *DockerCompiler) ensureImage(ctx context.Context) error {
	_, err := c.cli.ImageInspect(ctx, c.imageName)
	if err == nil {
		return nil // Image exists
	}

	reader, err := c.cli.ImagePull(ctx, c.imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer reader.Close()

	// Drain reader to complete pull
	_, err = io.Copy(io.Discard, reader)
	return err
}

func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
