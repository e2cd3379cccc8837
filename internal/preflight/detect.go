package preflight

import (
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DetectSources returns the .xcodeproj and .xcworkspace directories under
// root, relative to root and sorted.
func DetectSources(root string) []string {
	var matches []string

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		name := d.Name()
		switch name {
		case ".git", "Pods", "Carthage", ".build", "DerivedData", "node_modules", ".swiftpm":
			return fs.SkipDir
		}
		if strings.HasSuffix(name, ".xcworkspace") || strings.HasSuffix(name, ".xcodeproj") {
			if rel, relErr := filepath.Rel(root, path); relErr == nil {
				matches = append(matches, rel)
			}
			// The project.xcworkspace inside an .xcodeproj is not a source.
			return fs.SkipDir
		}
		return nil
	})

	sort.Strings(matches)
	return matches
}

var developmentTeamRe = regexp.MustCompile(`DEVELOPMENT_TEAM = ([A-Z0-9]{10});`)

// DetectTeamID returns the most frequent DEVELOPMENT_TEAM in the
// project.pbxproj files next to source, or "" if there is none.
func DetectTeamID(source string) (string, error) {
	pbxprojs, err := filepath.Glob(filepath.Join(filepath.Dir(source), "*.xcodeproj", "project.pbxproj"))
	if err != nil {
		return "", err
	}

	counts := map[string]int{}
	for _, path := range pbxprojs {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		for _, m := range developmentTeamRe.FindAllStringSubmatch(string(content), -1) {
			counts[m[1]]++
		}
	}

	best := ""
	for team, n := range counts {
		if n > counts[best] || (n == counts[best] && team < best) {
			best = team
		}
	}
	return best, nil
}
