package core

import (
	"encoding/json"
	"os"
)

// hashSidecar is stored next to ETag-tracked downloads as <file>.hash
type hashSidecar struct {
	SHA1 string `json:"sha1"`
	ETag string `json:"etag"`
}

func sidecarPath(path string) string {
	return path + ".hash"
}

func loadSidecar(path string) (hashSidecar, bool) {
	data, err := os.ReadFile(sidecarPath(path))
	if err != nil {
		return hashSidecar{}, false
	}
	var sc hashSidecar
	if err := json.Unmarshal(data, &sc); err != nil || sc.ETag == "" {
		return hashSidecar{}, false
	}
	return sc, true
}

func saveSidecar(path string, sc hashSidecar) error {
	data, err := json.Marshal(sc)
	if err != nil {
		return err
	}
	return os.WriteFile(sidecarPath(path), data, 0644)
}

// matches reports whether the file at path still has the SHA-1 recorded in the sidecar
func (sc hashSidecar) matches(path string) bool {
	if sc.SHA1 == "" {
		return false
	}
	actual, err := HashFile(path, "sha1")
	return err == nil && HashMatches(actual, sc.SHA1)
}
