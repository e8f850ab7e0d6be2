package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/ForkKILLET/fkio/pkg/driver"
)

func runDeps(args []string) int {
	if len(args) == 0 || args[0] != "fetch" {
		fmt.Fprintln(os.Stderr, "usage: fkio deps fetch")
		return 1
	}

	manifestPath := driver.FindManifest(".")
	if manifestPath == "" {
		fmt.Fprintf(os.Stderr, "fkio deps: no %s found\n", driver.ManifestName)
		return 1
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(manifest.Deps) == 0 {
		fmt.Fprintln(os.Stdout, "no dependencies declared")
		return 0
	}

	cache := depsCacheDir()
	lock := driver.NewLockfile(cliToolVersion)
	lockPath := filepath.Join(filepath.Dir(manifestPath), driver.LockfileName)
	if existing, err := driver.LoadLockfile(lockPath); err == nil {
		lock = existing
		lock.Tool = cliToolVersion
	}

	for _, dep := range manifest.Deps {
		locked, err := fetchDependency(cache, dep)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fkio deps: %s: %v\n", dep.Name, err)
			return 1
		}
		lock.Add(locked)
		fmt.Fprintf(os.Stdout, "fetched %s %s\n", locked.Name, locked.Commit[:minInt(12, len(locked.Commit))])
	}

	if err := lock.Save(lockPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// fetchDependency clones the library repository into the cache (an existing
// clone is reused as is, without fetching), checks out the requested ref, and
// records the resolved commit plus a checksum of the script.
func fetchDependency(cache string, dep driver.Dependency) (*driver.LockedPackage, error) {
	dir := filepath.Join(cache, sanitizeName(dep.Name))

	repo, err := git.PlainOpen(dir)
	if err != nil {
		repo, err = git.PlainClone(dir, false, &git.CloneOptions{URL: dep.Git})
		if err != nil {
			return nil, fmt.Errorf("clone %s: %w", dep.Git, err)
		}
	}

	if dep.Ref != "" {
		wt, err := repo.Worktree()
		if err != nil {
			return nil, err
		}
		checkout := &git.CheckoutOptions{}
		if hash := plumbing.NewHash(dep.Ref); !hash.IsZero() && len(dep.Ref) == 40 {
			checkout.Hash = hash
		} else {
			checkout.Branch = plumbing.NewBranchReferenceName(dep.Ref)
		}
		if err := wt.Checkout(checkout); err != nil {
			return nil, fmt.Errorf("checkout %s: %w", dep.Ref, err)
		}
	}

	head, err := repo.Head()
	if err != nil {
		return nil, err
	}

	scriptPath := dep.Path
	if scriptPath == "" {
		scriptPath = "index.k"
	}
	checksum, err := fileChecksum(filepath.Join(dir, scriptPath))
	if err != nil {
		return nil, fmt.Errorf("checksum %s: %w", scriptPath, err)
	}

	return &driver.LockedPackage{
		Name:     sanitizeName(dep.Name),
		Source:   dep.Git,
		Ref:      dep.Ref,
		Commit:   head.Hash().String(),
		Path:     scriptPath,
		Checksum: checksum,
	}, nil
}

func depsCacheDir() string {
	if dir := os.Getenv("FKIO_CACHE"); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "fkio", "deps")
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sanitizeName(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	return strings.Trim(mapped, "-")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
