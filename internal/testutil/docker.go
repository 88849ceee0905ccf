package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// LatexLabel marks LaTeX containers started by a test. The value is the
// test name.
const LatexLabel = "fireform.test"

// DockerClient returns a client for the local daemon, or skips the test when
// none answers. Containers carrying ContainerLabels(t) are force-removed when
// the test ends, so a compile that was interrupted leaves nothing behind.
func DockerClient(t *testing.T) *client.Client {
	t.Helper()

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("docker client unavailable: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		t.Skipf("docker is not running: %v", err)
	}

	t.Cleanup(func() {
		removeLatexContainers(t, cli)
		cli.Close()
	})
	return cli
}

// ContainerLabels returns the labels a test passes to render.DockerConfig.
func ContainerLabels(t *testing.T) map[string]string {
	return map[string]string{LatexLabel: t.Name()}
}

func removeLatexContainers(t *testing.T, cli *client.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	args := filters.NewArgs(filters.Arg("label", LatexLabel+"="+t.Name()))
	list, err := cli.ContainerList(ctx, container.ListOptions{All: true, Filters: args})
	if err != nil {
		t.Logf("listing latex containers: %v", err)
		return
	}
	for _, c := range list {
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			t.Logf("removing latex container %s: %v", c.ID[:12], err)
		}
	}
}
