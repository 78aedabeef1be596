package pydeps

// StdlibModules is the set of top-level module names treated as part of the
// Python standard library during import classification.
type StdlibModules map[string]struct{}

// Contains reports whether name is in the set.
func (s StdlibModules) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// With returns a copy of the set extended with the given names. The default
// list is deliberately incomplete; callers with unusual codebases can extend
// it without touching the extraction logic.
func (s StdlibModules) With(names ...string) StdlibModules {
	out := make(StdlibModules, len(s)+len(names))
	for name := range s {
		out[name] = struct{}{}
	}
	for _, name := range names {
		out[name] = struct{}{}
	}
	return out
}

// DefaultStdlib returns the built-in standard-library module set. It covers
// the modules that show up in practice rather than the full stdlib index:
// an unknown stdlib module is misreported as third-party, which is a known,
// accepted trade-off.
func DefaultStdlib() StdlibModules {
	names := []string{
		"abc", "argparse", "asyncio", "collections", "concurrent", "contextlib", "copy",
		"csv", "datetime", "decimal", "email", "enum", "functools", "glob", "hashlib",
		"http", "importlib", "inspect", "io", "itertools", "json", "logging", "math",
		"multiprocessing", "operator", "os", "pathlib", "pickle", "random", "re",
		"shutil", "signal", "socket", "sqlite3", "statistics", "string", "subprocess",
		"sys", "tempfile", "threading", "time", "traceback", "typing", "uuid", "warnings",
		"weakref", "xml", "zipfile",
	}
	set := make(StdlibModules, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
