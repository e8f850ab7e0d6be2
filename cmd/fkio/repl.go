package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ForkKILLET/fkio/pkg/interpreter"
	"github.com/ForkKILLET/fkio/pkg/runtime"
)

func runRepl(args []string, debug bool) int {
	rt := interpreter.NewRuntime(interpreter.Options{IsDebug: debug})
	defer rt.Close()
	scope := rt.WithGlobal(runtime.NewScope(nil))

	hist, err := openHistory(historyPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "repl: history unavailable: %v\n", err)
	} else {
		defer hist.Close()
	}

	fmt.Fprintln(os.Stdout, cliToolVersion)
	scanner := bufio.NewScanner(os.Stdin)
	lineNo := 0
	for {
		fmt.Fprint(os.Stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(os.Stdout)
			return 0
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == ".exit" {
			return 0
		}
		if line == ".history" {
			if hist != nil {
				lines, err := hist.List(20)
				if err != nil {
					fmt.Fprintf(os.Stderr, "repl: history: %v\n", err)
					continue
				}
				for _, old := range lines {
					fmt.Fprintln(os.Stdout, old)
				}
			}
			continue
		}
		if hist != nil {
			if err := hist.Add(line); err != nil {
				fmt.Fprintf(os.Stderr, "repl: history: %v\n", err)
			}
		}
		lineNo++
		exec, err := rt.Execute(line, interpreter.ExecOptions{
			Desc:        fmt.Sprintf("repl-%d", lineNo),
			RootScope:   scope,
			InRootScope: true,
		})
		if err != nil {
			printError(err)
			continue
		}
		if err := exec.Wait(); err != nil {
			printError(err)
		}
	}
}

func historyPath() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	dir := filepath.Join(base, "fkio")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return filepath.Join(os.TempDir(), "fkio-history.db")
	}
	return filepath.Join(dir, "history.db")
}
