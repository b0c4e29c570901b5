// Package digest computes content hashes for emitted assets and applies the
// hashed filename convention shared by the pipeline and the registry.
package digest

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Algorithm names a supported content digest.
type Algorithm string

const (
	SHA1   Algorithm = "sha1"
	BLAKE3 Algorithm = "blake3"
)

// Default is the digest used when none is configured. Manifests written with
// it carry 40 character hex hashes.
const Default = SHA1

// Parse maps a configuration value to an Algorithm. An empty value selects
// Default.
func Parse(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return Default, nil
	case SHA1:
		return SHA1, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("unsupported digest algorithm %q", name)
	}
}

// Sum returns the lowercase hex digest of data.
func (a Algorithm) Sum(data []byte) string {
	switch a {
	case BLAKE3:
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:])
	default:
		sum := sha1.Sum(data)
		return hex.EncodeToString(sum[:])
	}
}

// Size reports the hex length of digests produced by a.
func (a Algorithm) Size() int {
	if a == BLAKE3 {
		return 64
	}
	return 40
}

// InsertFragment places fragment before the final extension of the last path
// segment: "css/site.css" becomes "css/site.<fragment>.css". Names without an
// extension, including dot-files such as ".htaccess", get ".<fragment>"
// appended. Both filesystem paths and URL paths are accepted.
func InsertFragment(path, fragment string) string {
	if fragment == "" {
		return path
	}
	slash := strings.LastIndexAny(path, `/\`)
	dir, base := path[:slash+1], path[slash+1:]

	rest := strings.TrimLeft(base, ".")
	dot := strings.LastIndex(rest, ".")
	if dot < 0 {
		return path + "." + fragment
	}
	dot += len(base) - len(rest)
	return dir + base[:dot] + "." + fragment + base[dot:]
}
