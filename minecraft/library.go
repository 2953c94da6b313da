package minecraft

import (
	"path"
	"strings"
)

type Library struct {
	Name      string            `json:"name"`
	URL       string            `json:"url,omitempty"`
	Downloads *LibraryDownloads `json:"downloads,omitempty"`
	Natives   map[string]string `json:"natives,omitempty"`
	Extract   *struct {
		Exclude []string `json:"exclude"`
	} `json:"extract,omitempty"`
	Rules []Rule `json:"rules,omitempty"`
	// Checksums are set on libraries distributed as pack.xz files
	Checksums []string `json:"checksums,omitempty"`
}

type LibraryDownloads struct {
	Artifact    *Download           `json:"artifact,omitempty"`
	Classifiers map[string]Download `json:"classifiers,omitempty"`
}

// Applies reports whether the library is needed on this platform
func (l Library) Applies() bool {
	return RulesAllow(l.Rules)
}

// NativeClassifier returns the natives classifier for this platform, if the library has natives
func (l Library) NativeClassifier() (string, bool) {
	if l.Natives == nil {
		return "", false
	}
	classifier, ok := l.Natives[OSName()]
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(classifier, "${arch}", archBits()), true
}

// Artifact returns the main jar of the library, deriving the path and URL from its maven name if the
// version JSON doesn't list one
func (l Library) Artifact() (Download, bool) {
	if l.Downloads != nil && l.Downloads.Artifact != nil {
		a := *l.Downloads.Artifact
		if a.Path == "" {
			if p, err := MavenPath(l.Name); err == nil {
				a.Path = p
			}
		}
		return a, a.Path != ""
	}
	if l.Downloads != nil && l.Natives != nil {
		// Natives-only library
		return Download{}, false
	}
	p, err := MavenPath(l.Name)
	if err != nil {
		return Download{}, false
	}
	base := l.URL
	if base == "" {
		base = librariesURL
	}
	return Download{Path: p, URL: strings.TrimSuffix(base, "/") + "/" + p}, true
}

// Native returns the natives jar for this platform
func (l Library) Native() (Download, bool) {
	classifier, ok := l.NativeClassifier()
	if !ok {
		return Download{}, false
	}
	if l.Downloads != nil && l.Downloads.Classifiers != nil {
		if d, ok := l.Downloads.Classifiers[classifier]; ok {
			return d, true
		}
	}
	p, err := MavenPath(l.Name + ":" + classifier)
	if err != nil {
		return Download{}, false
	}
	base := l.URL
	if base == "" {
		base = librariesURL
	}
	return Download{Path: p, URL: strings.TrimSuffix(base, "/") + "/" + p}, true
}

// ExcludedFromExtraction reports whether a natives jar entry should not be extracted
func (l Library) ExcludedFromExtraction(name string) bool {
	if l.Extract == nil {
		return strings.HasPrefix(name, "META-INF/")
	}
	for _, prefix := range l.Extract.Exclude {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// FileName is the base name of the library's jar
func (l Library) FileName() string {
	if a, ok := l.Artifact(); ok {
		return path.Base(a.Path)
	}
	return l.Name
}
