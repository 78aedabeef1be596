// Package pydeps extracts Python dependency facts from raw file content.
//
// It covers the three manifest kinds the scanner looks for (requirements.txt,
// pyproject.toml, setup.py) plus import statements found in Python source.
// All parsers are pure functions over text: they never touch the network or
// the filesystem, which keeps them trivially testable and lets the traversal
// layer decide how content is fetched.
package pydeps
