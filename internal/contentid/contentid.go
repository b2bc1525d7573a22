package contentid

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

// HexLength is the rendered length of a content id.
const HexLength = sha256.Size * 2

// ErrVanished reports that the file disappeared before it could be read.
var ErrVanished = errors.New("file vanished")

// Fingerprint is the size and modification time observed for a path.
type Fingerprint struct {
	Size    int64
	MtimeNS int64
}

// Equal reports whether two fingerprints describe the same observation.
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.Size == other.Size && f.MtimeNS == other.MtimeNS
}

// ModTime returns the fingerprint's modification time.
func (f Fingerprint) ModTime() time.Time {
	return time.Unix(0, f.MtimeNS)
}

// FromInfo builds a fingerprint from stat results.
func FromInfo(info fs.FileInfo) Fingerprint {
	return Fingerprint{Size: info.Size(), MtimeNS: info.ModTime().UnixNano()}
}

// Sum hashes everything read from r.
func Sum(r io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// HashFile returns the content id of the file at path.
func HashFile(path string) (string, error) {
	id, _, err := Identify(path)
	return id, err
}

// Identify fingerprints and hashes path. The fingerprint is taken from the
// open handle so it describes the same inode that was hashed even if the path
// is replaced mid-read.
func Identify(path string) (string, Fingerprint, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", Fingerprint{}, fmt.Errorf("%w: %s", ErrVanished, path)
		}
		return "", Fingerprint{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", Fingerprint{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", Fingerprint{}, fmt.Errorf("%s is not a regular file", path)
	}
	id, err := Sum(file)
	if err != nil {
		return "", Fingerprint{}, fmt.Errorf("hash %s: %w", path, err)
	}
	return id, FromInfo(info), nil
}

// Valid reports whether id looks like a rendered content id.
func Valid(id string) bool {
	if len(id) != HexLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Short returns the leading characters of id for log lines and tables.
func Short(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
