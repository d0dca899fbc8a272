package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/errdefs"
	"github.com/distribution/reference"
)

const (

	// Default containerd socket address.
	DefaultAddress = "/run/containerd/containerd.sock"

	// Default containerd namespace, the one nerdctl uses.
	DefaultNamespace = "default"
)

// Holds a containerd client scoped to one namespace.
type Runtime struct {
	client *containerd.Client
}

// Connects to the containerd socket at address.
//
// Empty arguments fall back to [DefaultAddress] and [DefaultNamespace]. The
// runtime must be closed when no longer needed.
func New(address, namespace string) (*Runtime, error) {
	if address == "" {
		address = DefaultAddress
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	client, err := containerd.New(address, containerd.WithDefaultNamespace(namespace))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	return &Runtime{client: client}, nil
}

// Closes the containerd client connection.
func (rt *Runtime) Close() error {
	return rt.client.Close()
}

// Removes an image and all containers created from it.
//
// The name is expanded to its fully qualified form ("app" becomes
// "docker.io/library/app:latest"), matching how engines record images.
// Containers are found by their image field; each one's task is killed
// before the container and its snapshot are deleted. Records that are
// already gone are ignored.
func (rt *Runtime) RemoveImage(ctx context.Context, image string) error {
	ref, err := imageRef(image)
	if err != nil {
		return err
	}

	ctrs, err := rt.client.Containers(ctx, fmt.Sprintf("image==%s", ref))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	for _, ctr := range ctrs {
		if task, taskErr := ctr.Task(ctx, nil); taskErr == nil {
			task.Kill(ctx, syscall.SIGKILL)
			task.Delete(ctx, containerd.WithProcessKill)
		}
		if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
			return fmt.Errorf("%w: %w", ErrRuntime, err)
		}
	}

	if err := rt.client.ImageService().Delete(ctx, ref); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	slog.Debug("image removed", "image", ref, "containers", len(ctrs))
	return nil
}

// Returns the fully qualified reference of an image name.
func imageRef(image string) (string, error) {
	named, err := reference.ParseDockerRef(image)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidImage, image, err)
	}
	return named.String(), nil
}
