package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ForkKILLET/fkio/pkg/driver"
	"github.com/ForkKILLET/fkio/pkg/interpreter"
	"github.com/ForkKILLET/fkio/pkg/parser"
	"github.com/ForkKILLET/fkio/pkg/runtime"
)

func runEntry(args []string, debug bool) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "fkio run: missing script file")
		return 1
	}
	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	desc := filepath.Base(path)
	var manifest *driver.Manifest
	if manifestPath := driver.FindManifest(filepath.Dir(path)); manifestPath != "" {
		m, err := driver.LoadManifest(manifestPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		manifest = m
		if m.Desc != "" {
			desc = m.Desc
		}
		debug = debug || m.Debug
	}

	rt := interpreter.NewRuntime(interpreter.Options{IsDebug: debug})
	defer rt.Close()
	scope := rt.WithGlobal(runtime.NewScope(nil))

	if manifest != nil {
		if err := loadLibraries(rt, manifest, filepath.Dir(path), scope); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	exec, err := rt.Execute(string(source), interpreter.ExecOptions{
		Desc:      desc,
		RootScope: scope,
	})
	if err != nil {
		printError(err)
		return 1
	}
	if err := exec.Wait(); err != nil {
		if interpreter.Aborted(err) {
			fmt.Fprintln(os.Stderr, "aborted")
			return 130
		}
		printError(err)
		return 1
	}
	return 0
}

// loadLibraries evaluates every locked script library into the root scope
// before the program runs, in manifest order.
func loadLibraries(rt *interpreter.Runtime, manifest *driver.Manifest, baseDir string, scope *runtime.Scope) error {
	if len(manifest.Deps) == 0 {
		return nil
	}
	lockPath := filepath.Join(baseDir, driver.LockfileName)
	lock, err := driver.LoadLockfile(lockPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("dependencies declared but %s is missing; run `fkio deps fetch`", driver.LockfileName)
		}
		return err
	}
	cache := depsCacheDir()
	for _, dep := range manifest.Deps {
		locked := lock.Find(sanitizeName(dep.Name))
		if locked == nil {
			return fmt.Errorf("dependency %q is not locked; run `fkio deps fetch`", dep.Name)
		}
		scriptPath := filepath.Join(cache, locked.Name, locked.Path)
		source, err := os.ReadFile(scriptPath)
		if err != nil {
			return fmt.Errorf("library %q: %w (run `fkio deps fetch`)", dep.Name, err)
		}
		exec, err := rt.Execute(string(source), interpreter.ExecOptions{
			Desc:        "lib:" + dep.Name,
			RootScope:   scope,
			InRootScope: true,
		})
		if err != nil {
			return fmt.Errorf("library %q: %w", dep.Name, err)
		}
		if err := exec.Wait(); err != nil {
			return fmt.Errorf("library %q: %w", dep.Name, err)
		}
	}
	return nil
}

func printError(err error) {
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		fmt.Fprintf(os.Stderr, "%s:%d:%d: %s\n",
			"syntax", parseErr.Location.Line, parseErr.Location.Column, parseErr.Message)
		return
	}
	fmt.Fprintln(os.Stderr, err)
}
