package components

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/relloyd/eltpipe/constants"
	"github.com/relloyd/eltpipe/helper"
	"github.com/relloyd/eltpipe/logger"
)

var ErrUnsupportedDbtSubcommand = errors.New("unsupported dbt subcommand")

var supportedDbtSubcommands = map[string]struct{}{
	constants.DbtSubcommandRun:      {},
	constants.DbtSubcommandTest:     {},
	constants.DbtSubcommandSnapshot: {},
}

type DbtConfig struct {
	Log         logger.Logger     `errorTxt:"logger" mandatory:"yes"`
	Name        string            `errorTxt:"step name" mandatory:"yes"`
	Bin         string            // dbt executable; a bare name is searched for in PATH including ExtraPath.
	ProjectDir  string            `errorTxt:"dbt project directory" mandatory:"yes"`
	ProfilesDir string            // defaults to ProjectDir.
	ExtraPath   string            // appended to PATH for the dbt process.
	Env         map[string]string // exported to the dbt process on top of the current environment e.g. DBT_*.
	Stdout      io.Writer         // optional copy of dbt stdout.
	Stderr      io.Writer         // optional copy of dbt stderr.
}

// RunDbt executes `dbt <subcommand> --project-dir <dir> --profiles-dir <dir>` in the project directory.
// Output is streamed to the logger line by line. A non-zero exit returns an error containing the exit code.
// Cancelling ctx kills the dbt process.
func RunDbt(ctx context.Context, cfg *DbtConfig, subcommand string) error {
	if _, ok := supportedDbtSubcommands[subcommand]; !ok {
		return fmt.Errorf("%w %q, expected one of run, test or snapshot", ErrUnsupportedDbtSubcommand, subcommand)
	}
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	bin := cfg.Bin
	if bin == "" {
		bin = constants.DbtBinDefault
	}
	profilesDir := cfg.ProfilesDir
	if profilesDir == "" {
		profilesDir = cfg.ProjectDir
	}
	env := helper.MergeEnv(os.Environ(), cfg.Env, cfg.ExtraPath)
	binPath, err := lookPathIn(bin, helper.EnvToMap(env)["PATH"])
	if err != nil {
		return fmt.Errorf("%v unable to find dbt executable: %w", cfg.Name, err)
	}
	if subcommand == constants.DbtSubcommandRun {
		logDirListing(cfg.Log, cfg.Name, cfg.ProjectDir)
	}
	cmd := exec.CommandContext(ctx, binPath, subcommand, "--project-dir", cfg.ProjectDir, "--profiles-dir", profilesDir)
	cmd.Dir = cfg.ProjectDir
	cmd.Env = env
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	cfg.Log.Info(cfg.Name, " executing: ", strings.Join(cmd.Args, " "))
	start := time.Now()
	if err = cmd.Start(); err != nil {
		return fmt.Errorf("%v unable to start dbt %v: %w", cfg.Name, subcommand, err)
	}
	// All output must be read before calling Wait.
	wg := sync.WaitGroup{}
	wg.Add(2)
	go streamLines(&wg, stdout, cfg.Stdout, func(line string) { cfg.Log.Info(cfg.Name, " ", line) })
	go streamLines(&wg, stderr, cfg.Stderr, func(line string) { cfg.Log.Warn(cfg.Name, " ", line) })
	wg.Wait()
	err = cmd.Wait()
	elapsed := time.Since(start).Round(time.Millisecond)
	if ctxErr := ctx.Err(); ctxErr != nil { // if we were cancelled or timed out...
		return fmt.Errorf("%v dbt %v stopped after %v: %w", cfg.Name, subcommand, elapsed, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%v dbt %v failed with exit code %v: %w", cfg.Name, subcommand, exitErr.ExitCode(), err)
		}
		return fmt.Errorf("%v dbt %v failed: %w", cfg.Name, subcommand, err)
	}
	cfg.Log.Info(cfg.Name, " dbt ", subcommand, " complete in ", elapsed)
	return nil
}

// streamLines reads r until EOF, copying each line to w if set and passing it to fn.
func streamLines(wg *sync.WaitGroup, r io.Reader, w io.Writer, fn func(line string)) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if w != nil {
			_, _ = fmt.Fprintln(w, line)
		}
		fn(line)
	}
	// Drain anything left if the scanner gave up on a very long line.
	_, _ = io.Copy(io.Discard, r)
}

// lookPathIn finds bin in the directories listed in path.
// A bin containing a path separator is used as is.
func lookPathIn(bin string, path string) (string, error) {
	if strings.ContainsRune(bin, os.PathSeparator) {
		return bin, nil
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		p := filepath.Join(dir, bin)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() && fi.Mode()&0111 != 0 {
			return p, nil
		}
	}
	return "", fmt.Errorf("%q not found in PATH %q", bin, path)
}

// logDirListing logs the contents of dir at debug level, which helps diagnose missing dbt project files.
func logDirListing(log logger.Logger, name string, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Debug(name, " unable to list directory ", dir, ": ", err)
		return
	}
	log.Debug(name, " contents of ", dir, ":")
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			continue
		}
		log.Debug(name, fmt.Sprintf(" %v %10d %v %v", fi.Mode(), fi.Size(), fi.ModTime().Format(time.RFC3339), e.Name()))
	}
}
