// Package runtime removes build images through containerd.
//
// Engines backed by containerd (nerdctl, or docker with the containerd image
// store) keep their images in a containerd namespace. A [Runtime] connects to
// the containerd socket and removes an image together with any leftover
// containers created from it, without going through the engine CLI.
//
// Example usage:
//
//	rt, err := runtime.New("/run/containerd/containerd.sock", "default")
//	if err != nil {
//	    return err
//	}
//	defer rt.Close()
//
//	if err := rt.RemoveImage(ctx, "group-center-builder"); err != nil {
//	    return err
//	}
package runtime
