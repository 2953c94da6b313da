package core

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/packlaunch/packlaunch/curseforge/murmur2"
)

// ErrHashMismatch is returned when a downloaded or existing file does not match its expected digest
var ErrHashMismatch = errors.New("hash mismatch")

// GetHashImpl gets an implementation of hash.Hash for the given hash type string
func GetHashImpl(hashType string) (hash.Hash, error) {
	switch strings.ToLower(hashType) {
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	case "md5":
		return md5.New(), nil
	case "murmur2":
		return murmur2.New(), nil
	}
	return nil, fmt.Errorf("hash implementation %s not found", hashType)
}

// HashTypeFor guesses the hash type of a digest from its length: 40 characters is SHA-1, anything else
// (including an empty digest) is treated as MD5.
func HashTypeFor(digest string) string {
	if len(digest) == 40 {
		return "sha1"
	}
	return "md5"
}

// EncodeHash formats the sum of h the way it is stored in metadata; murmur2 is stored as a decimal number
func EncodeHash(hashType string, h hash.Hash) string {
	if strings.ToLower(hashType) == "murmur2" {
		if h32, ok := h.(hash.Hash32); ok {
			return strconv.FormatUint(uint64(h32.Sum32()), 10)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// HashFile returns the encoded digest of the file at path.
func HashFile(path string, hashType string) (string, error) {
	h, err := GetHashImpl(hashType)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return EncodeHash(hashType, h), nil
}

// HashMatches compares an encoded digest with an expected one, ignoring case
func HashMatches(actual string, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(actual), strings.TrimSpace(expected))
}
