package launch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/packlaunch/packlaunch/account"
	"github.com/packlaunch/packlaunch/core"
	"github.com/packlaunch/packlaunch/instance"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// Result describes a finished game session
type Result struct {
	ExitCode int
	Duration time.Duration
	// PeakRSS is the largest resident set size seen while the game ran, in bytes
	PeakRSS uint64
}

// HostMemoryMB returns the total RAM of this machine in MB, or 0 if it can't be read
func HostMemoryMB() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		core.Log.Warn("failed to read host memory", zap.Error(err))
		return 0
	}
	return vm.Total / 1024 / 1024
}

// Prepare fills in the Java runtime, directories and host memory for launching inst
func Prepare(ctx context.Context, inst *instance.Instance, acc *account.Account) (Options, error) {
	java, err := DetectJava(ctx, JavaExecutable(inst.Launcher.JavaPath))
	if err != nil {
		return Options{}, err
	}
	if err := CheckJava(java, inst.Launcher.Java); err != nil {
		return Options{}, err
	}
	librariesDir, err := core.GetLibrariesDir()
	if err != nil {
		return Options{}, err
	}
	assetsDir, err := core.GetAssetsDir()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Account:      acc,
		Java:         java,
		LibrariesDir: librariesDir,
		AssetsDir:    assetsDir,
		HostMemory:   HostMemoryMB(),
	}, nil
}

// Command builds the process for launching inst, without starting it
func Command(ctx context.Context, inst *instance.Instance, opts Options) (*exec.Cmd, error) {
	if !core.FileExists(inst.MinecraftJar()) {
		return nil, fmt.Errorf("instance %s is not installed: %s is missing", inst.Name(), inst.MinecraftJar())
	}
	var args []string
	if inst.IsServer() {
		args = ServerArguments(inst, opts)
	} else {
		if opts.Account == nil {
			return nil, account.ErrNoneSelected
		}
		if err := os.MkdirAll(inst.NativesDir(), os.ModePerm); err != nil {
			return nil, err
		}
		args = Arguments(inst, opts)
	}

	name := opts.Java.Path
	if wrapper := strings.Fields(inst.Launcher.WrapperCommand); len(wrapper) > 0 {
		name = wrapper[0]
		args = append(append(wrapper[1:], opts.Java.Path), args...)
	}
	core.Log.Info("launching", zap.String("instance", inst.Name()), zap.String("java", opts.Java.Version),
		zap.Strings("args", Redact(args, opts.Account)))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = inst.Root()
	cmd.Env = environment()
	return cmd, nil
}

// environment is this process's environment without _JAVA_OPTIONS, which would override the memory flags
func environment() []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "_JAVA_OPTIONS=") {
			continue
		}
		env = append(env, kv)
	}
	return env
}

// Run starts the game, forwards its output to the log, and waits for it to exit. Play time is added to the
// instance and saved afterwards.
func Run(ctx context.Context, inst *instance.Instance, opts Options) (Result, error) {
	cmd, err := Command(ctx, inst, opts)
	if err != nil {
		return Result{}, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, err
	}

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("failed to start the game: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		forwardOutput(stdout, "stdout", opts.Account)
	}()
	go func() {
		defer wg.Done()
		forwardOutput(stderr, "stderr", opts.Account)
	}()

	monitorDone := make(chan struct{})
	peak := make(chan uint64, 1)
	go func() {
		peak <- monitorMemory(int32(cmd.Process.Pid), monitorDone)
	}()

	wg.Wait()
	waitErr := cmd.Wait()
	close(monitorDone)

	result := Result{Duration: time.Since(started), PeakRSS: <-peak}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return result, waitErr
		}
		result.ExitCode = exitErr.ExitCode()
	}

	inst.AddPlayTime(started, result.Duration)
	if err := inst.Save(); err != nil {
		core.Log.Warn("failed to save play time", zap.Error(err))
	}
	core.Log.Info("game exited", zap.Int("code", result.ExitCode), zap.Duration("played", result.Duration),
		zap.Uint64("peakRSS", result.PeakRSS))
	return result, nil
}

func forwardOutput(r io.Reader, stream string, acc *account.Account) {
	redact := lineRedactor(acc)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		core.Log.Info(redact(scanner.Text()), zap.String("stream", stream))
	}
	if err := scanner.Err(); err != nil {
		core.Log.Warn("stopped forwarding game output", zap.String("stream", stream), zap.Error(err))
	}
	// The game blocks once the pipe fills, so whatever is left still has to be read
	_, _ = io.Copy(io.Discard, r)
}

// monitorMemory samples the game's resident memory until done is closed and returns the highest value seen
func monitorMemory(pid int32, done <-chan struct{}) uint64 {
	proc, err := process.NewProcess(pid)
	if err != nil {
		<-done
		return 0
	}
	var peak uint64
	sample := func() {
		if info, err := proc.MemoryInfo(); err == nil && info.RSS > peak {
			peak = info.RSS
		}
	}
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	sample()
	for {
		select {
		case <-done:
			return peak
		case <-ticker.C:
			sample()
		}
	}
}
