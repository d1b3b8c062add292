package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/hkuds/upilot/internal/failure"
)

// DockerRunner executes each script in a fresh container. The per-run
// directory is bind-mounted at the container work dir, so the result file
// protocol is identical to the local runner's. Killing the container on
// timeout takes the whole process tree with it.
type DockerRunner struct {
	cfg    RunnerConfig
	client *client.Client
}

// NewDockerRunner creates a DockerRunner. It fails if the Docker client
// cannot be constructed; daemon reachability is checked by Ping.
func NewDockerRunner(cfg RunnerConfig) (*DockerRunner, error) {
	cfg.Validate()
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &DockerRunner{cfg: cfg, client: cli}, nil
}

func (r *DockerRunner) Name() string { return "docker" }

// Ping checks if the Docker daemon is accessible.
func (r *DockerRunner) Ping(ctx context.Context) error {
	_, err := r.client.Ping(ctx)
	return err
}

func (r *DockerRunner) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *DockerRunner) Run(ctx context.Context, spec Spec) (*Execution, error) {
	script, err := os.ReadFile(spec.ScriptPath)
	if err != nil {
		return nil, failure.New(failure.SandboxFailure, fmt.Errorf("script missing: %w", err))
	}
	if reason := GuardScript(string(script)); reason != "" {
		return nil, failure.Newf(failure.SandboxFailure, "script blocked: %s", reason)
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = r.cfg.Timeout
	}

	if err := r.ensureImage(ctx); err != nil {
		return nil, failure.New(failure.SandboxFailure, err)
	}

	containerCfg, hostCfg := r.buildConfig(spec)
	resp, err := r.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "")
	if err != nil {
		return nil, failure.New(failure.SandboxFailure, fmt.Errorf("create container: %w", err))
	}
	id := resp.ID
	defer func() {
		rmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = r.client.ContainerRemove(rmCtx, id, container.RemoveOptions{Force: true})
	}()

	start := time.Now()
	if err := r.client.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return nil, failure.New(failure.SandboxFailure, fmt.Errorf("start container: %w", err))
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	waitCh, errCh := r.client.ContainerWait(runCtx, id, container.WaitConditionNotRunning)

	var res Execution
	select {
	case status := <-waitCh:
		res.ExitCode = int(status.StatusCode)
	case err := <-errCh:
		if runCtx.Err() != nil {
			res.TimedOut = true
			res.ExitCode = -1
		} else {
			return nil, failure.New(failure.SandboxFailure, fmt.Errorf("wait container: %w", err))
		}
	case <-runCtx.Done():
		res.TimedOut = true
		res.ExitCode = -1
	}
	res.Elapsed = time.Since(start)

	res.Stdout, res.Stderr = r.collectLogs(id)

	if res.TimedOut {
		return &res, failure.Newf(failure.ExecutionTimeout, "script killed after %v", timeout)
	}
	return &res, nil
}

func (r *DockerRunner) ensureImage(ctx context.Context) error {
	_, _, err := r.client.ImageInspectWithRaw(ctx, r.cfg.Image)
	if err == nil {
		return nil
	}

	reader, err := r.client.ImagePull(ctx, r.cfg.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", r.cfg.Image, err)
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("pull image %s: %w", r.cfg.Image, err)
	}
	return nil
}

func (r *DockerRunner) buildConfig(spec Spec) (*container.Config, *container.HostConfig) {
	workDir := r.cfg.WorkDir
	inContainer := func(hostPath string) string {
		rel, err := filepath.Rel(spec.RunDir, hostPath)
		if err != nil {
			return path.Join(workDir, filepath.Base(hostPath))
		}
		return path.Join(workDir, filepath.ToSlash(rel))
	}

	containerCfg := &container.Config{
		Image:      r.cfg.Image,
		WorkingDir: workDir,
		Cmd:        []string{r.cfg.Interpreter, inContainer(spec.ScriptPath)},
		Env: []string{
			EnvResultFile + "=" + inContainer(spec.ResultFile),
			EnvBackend + "=" + spec.Backend,
			EnvTargetURL + "=" + spec.TargetURL,
			EnvArtifactDir + "=" + inContainer(spec.ArtifactDir),
		},
	}

	hostCfg := &container.HostConfig{
		ReadonlyRootfs: true,
		CapDrop:        []string{"ALL"},
		SecurityOpt:    []string{"no-new-privileges:true"},
		Resources: container.Resources{
			Memory:     r.cfg.MemoryMB * 1024 * 1024,
			MemorySwap: r.cfg.MemoryMB * 1024 * 1024,
			CPUQuota:   int64(r.cfg.CPUPercent * 100000),
			CPUPeriod:  100000,
			PidsLimit:  &r.cfg.MaxProcesses,
		},
		Tmpfs: map[string]string{
			"/tmp": "rw,nosuid,size=64m",
		},
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: spec.RunDir,
			Target: workDir,
		}},
	}
	if !r.cfg.NetworkEnabled {
		hostCfg.NetworkMode = "none"
	}

	return containerCfg, hostCfg
}

func (r *DockerRunner) collectLogs(id string) (stdout, stderr string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logs, err := r.client.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return "", ""
	}
	defer logs.Close()

	var outBuf, errBuf bytes.Buffer
	_, _ = stdcopy.StdCopy(
		&limitedWriter{w: &outBuf, limit: r.cfg.MaxOutputBytes},
		&limitedWriter{w: &errBuf, limit: r.cfg.MaxOutputBytes},
		logs,
	)
	return outBuf.String(), errBuf.String()
}
