package bindings

import (
	"os"
	"path/filepath"
)

// baseName is the native library's project name; the per-OS file name is
// derived from it (keychain.dll, libkeychain.so, libkeychain.dylib).
const baseName = "keychain"

// runtimeIDs maps a (GOOS, GOARCH) pair to the runtime identifier used in
// the published package layout. Pairs outside this set have no native build.
var runtimeIDs = map[[2]string]string{
	{"windows", "amd64"}: "win-x64",
	{"windows", "386"}:   "win-x86",
	{"windows", "arm64"}: "win-arm64",
	{"linux", "amd64"}:   "linux-x64",
	{"linux", "arm64"}:   "linux-arm64",
	{"linux", "arm"}:     "linux-arm",
	{"darwin", "amd64"}:  "osx-x64",
	{"darwin", "arm64"}:  "osx-arm64",
}

func runtimeIdentifier(goos, goarch string) (string, error) {
	rid, ok := runtimeIDs[[2]string{goos, goarch}]
	if !ok {
		return "", &PlatformError{OS: goos, Arch: goarch}
	}
	return rid, nil
}

func libraryFileName(goos string) string {
	switch goos {
	case "windows":
		return baseName + ".dll"
	case "darwin":
		return "lib" + baseName + ".dylib"
	default:
		return "lib" + baseName + ".so"
	}
}

// candidatePaths builds the ordered list of locations probed for the native
// library under each base directory: the nuget-style runtimes/<rid>/native
// layout, a plain sibling file, and the legacy "runtims" spelling older
// packages shipped with.
func candidatePaths(rid, name string, baseDirs []string) []string {
	paths := make([]string, 0, 3*len(baseDirs))
	for _, dir := range baseDirs {
		paths = append(paths,
			filepath.Join(dir, "runtimes", rid, "native", name),
			filepath.Join(dir, name),
			filepath.Join(dir, "runtims", rid, name),
		)
	}
	return paths
}

// searchBases returns the directories candidate paths are anchored to: the
// executable's directory first, then the working directory.
func searchBases() []string {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	return dirs
}
