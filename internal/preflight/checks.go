package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"webstatic/internal/digest"
	"webstatic/internal/manifest"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatable passes when path is an accessible directory or when its
// nearest existing ancestor is, so that the build can create it.
func CheckCreatable(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := filepath.Dir(path)
	for {
		if _, err := os.Stat(ancestor); err == nil {
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}
	check := CheckDirectoryAccess(name, ancestor)
	if !check.Passed {
		return check
	}
	return Result{Name: name, Passed: true, Warning: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckInputs verifies that every input file exists and is readable.
func CheckInputs(name string, inputs []string) Result {
	if len(inputs) == 0 {
		return Result{Name: name, Detail: "no inputs configured"}
	}
	var problems []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		switch {
		case err != nil && errors.Is(err, fs.ErrNotExist):
			problems = append(problems, input+" missing")
		case err != nil:
			problems = append(problems, fmt.Sprintf("%s: %v", input, err))
		case info.IsDir():
			problems = append(problems, input+" is a directory")
		default:
			if err := unix.Access(input, unix.R_OK); err != nil {
				problems = append(problems, fmt.Sprintf("%s unreadable: %v", input, err))
			}
		}
	}
	if len(problems) > 0 {
		return Result{Name: name, Detail: strings.Join(problems, "; ")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d file(s) readable", len(inputs))}
}

// CheckLock reports whether a build currently holds the manifest lock.
func CheckLock(name, lockPath string) Result {
	if _, err := os.Stat(filepath.Dir(lockPath)); err != nil {
		return Result{Name: name, Passed: true, Detail: "not held"}
	}
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", lockPath, err)}
	}
	if !ok {
		return Result{Name: name, Detail: fmt.Sprintf("%s (held by a running build)", lockPath)}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: "not held"}
}

// CheckManifest parses the manifest file and verifies that the hashed file of
// every entry exists. A missing manifest passes since the first build
// creates it.
func CheckManifest(name, path string, hashLength int) Result {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Result{Name: name, Passed: true, Warning: true, Detail: fmt.Sprintf("%s (not built yet)", path)}
	}
	m, err := manifest.Open(path, hashLength)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	var missing []string
	for _, entry := range m.Entries() {
		hashed := digest.InsertFragment(entry.Key, m.Truncate(entry.Hash))
		if _, err := os.Stat(hashed); err != nil {
			missing = append(missing, entry.Rel)
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%d of %d entries missing output: %s", len(missing), m.Len(), strings.Join(missing, ", "))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d entries, outputs present", m.Len())}
}
