// Package diffutil generates, parses, and applies unified diffs for the
// review workflow.
//
// The parser is deliberately restricted: hunk headers are skipped rather
// than interpreted, so a diff with multiple hunks is flattened into one
// contiguous block, and application is a best-effort text substitution
// (exact substring first, then a per-line trimmed scan). These limits are
// part of the contract; callers that need a general patch engine should not
// use this package.
package diffutil

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ErrorType classifies a failed diff application.
type ErrorType string

const (
	ErrFileNotFound     ErrorType = "file_not_found"
	ErrPermissionDenied ErrorType = "permission_denied"
	ErrDiffConflict     ErrorType = "diff_conflict"
	ErrIO               ErrorType = "io_error"
	ErrInvalidDiff      ErrorType = "invalid_diff"
)

// Result reports the outcome of applying a diff to a file.
// OriginalPreserved is true on every failure path: either the file was
// never touched, or it was restored from backup before returning.
type Result struct {
	Success           bool
	ErrorType         ErrorType
	ErrorMessage      string
	OriginalPreserved bool
}

func failure(kind ErrorType, format string, args ...any) Result {
	return Result{
		Success:           false,
		ErrorType:         kind,
		ErrorMessage:      fmt.Sprintf(format, args...),
		OriginalPreserved: true,
	}
}

// splitKeepEnds splits content into lines that retain their newlines,
// matching how the diff body lines are stored.
func splitKeepEnds(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Generate produces a unified diff between original and modified content.
// The path appears only in the a/<path> and b/<path> headers. Returns an
// empty string when the contents are equal.
func Generate(original, modified, path string) string {
	if original == modified {
		return ""
	}

	a := splitKeepEnds(original)
	b := splitKeepEnds(modified)

	// Terminate the last line so the diff body is well formed even when
	// the input lacks a final newline.
	if len(a) > 0 && !strings.HasSuffix(a[len(a)-1], "\n") {
		a[len(a)-1] += "\n"
	}
	if len(b) > 0 && !strings.HasSuffix(b[len(b)-1], "\n") {
		b[len(b)-1] += "\n"
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}

// Parse extracts the (original, modified) snippets from a unified diff.
// Header lines ("--- ", "+++ ") and hunk headers ("@@") are skipped, so
// multiple hunks collapse into one contiguous block. At most one trailing
// newline is stripped from each snippet, normalizing against typical input
// that lacks a final newline.
//
// A content line whose first character is a literal '-' or '+' is
// indistinguishable from a diff marker here; diffs of such content are
// lossy. ok is false for an empty or whitespace-only diff.
func Parse(diff string) (original, modified string, ok bool) {
	if strings.TrimSpace(diff) == "" {
		return "", "", false
	}

	var origLines, modLines []string
	for _, line := range splitKeepEnds(diff) {
		switch {
		// "--- a/file" is a header; "---\n" is a removed line reading "--".
		case strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ "):
			continue
		case strings.HasPrefix(line, "@@"):
			continue
		case strings.HasPrefix(line, " "):
			origLines = append(origLines, line[1:])
			modLines = append(modLines, line[1:])
		case strings.HasPrefix(line, "-"):
			origLines = append(origLines, line[1:])
		case strings.HasPrefix(line, "+"):
			modLines = append(modLines, line[1:])
		}
	}

	original = strings.TrimSuffix(strings.Join(origLines, ""), "\n")
	modified = strings.TrimSuffix(strings.Join(modLines, ""), "\n")
	return original, modified, true
}

// ApplyToContent applies a diff to an in-memory string. The content must
// match the diff's original snippet up to trailing whitespace; ok is false
// when it does not. A no-op diff returns the content unchanged.
func ApplyToContent(content, diff string) (string, bool) {
	expected, modified, parsed := Parse(diff)
	if !parsed {
		return content, true
	}
	if strings.TrimRight(content, " \t\n") != strings.TrimRight(expected, " \t\n") {
		return "", false
	}
	return modified, true
}

// Apply applies a unified diff to the file at path, with backup-and-restore
// safety. The original file content is unchanged on every failure path.
//
// Matching policy: the parsed original snippet is located by exact
// (whitespace-trimmed) substring first, then by a per-line trimmed scan for
// a contiguous run. The first match wins, so a snippet that occurs more
// than once in the file may be replaced at the wrong occurrence.
func Apply(path, diff string) Result {
	if _, err := os.Stat(path); err != nil {
		return failure(ErrFileNotFound, "file not found: %s", path)
	}

	if strings.TrimSpace(diff) == "" {
		return Result{Success: true, OriginalPreserved: true}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return failure(ErrPermissionDenied, "permission denied reading file: %s", path)
		}
		return failure(ErrIO, "error reading file: %v", err)
	}
	content := string(data)

	expected, replacement, parsed := Parse(diff)
	if !parsed {
		return Result{Success: true, OriginalPreserved: true}
	}

	expectedNorm := strings.TrimSpace(expected)
	replacementNorm := strings.TrimSpace(replacement)

	var modified string
	if strings.Contains(content, expectedNorm) {
		modified = strings.Replace(content, expectedNorm, replacementNorm, 1)
	} else {
		spliced, found := spliceLines(content, expectedNorm, replacementNorm)
		if !found {
			return failure(ErrDiffConflict,
				"file has been modified since diff was generated: expected content does not match current file content")
		}
		modified = spliced
	}

	backup, err := makeBackup(path)
	if err != nil {
		return failure(ErrIO, "failed to create backup: %v", err)
	}

	if err := os.WriteFile(path, []byte(modified), 0o644); err != nil {
		restoreBackup(path, backup)
		if os.IsPermission(err) {
			return failure(ErrPermissionDenied, "permission denied writing to file: %s", path)
		}
		return failure(ErrIO, "error writing file: %v", err)
	}

	os.Remove(backup)
	return Result{Success: true, OriginalPreserved: true}
}

// spliceLines looks for a contiguous run of lines in content that matches
// the expected lines after per-line trimming, and replaces that run.
func spliceLines(content, expected, replacement string) (string, bool) {
	contentLines := strings.Split(content, "\n")
	expectedLines := strings.Split(expected, "\n")
	replacementLines := strings.Split(replacement, "\n")

	start := -1
	for i := 0; i+len(expectedLines) <= len(contentLines); i++ {
		match := true
		for j, exp := range expectedLines {
			if strings.TrimSpace(contentLines[i+j]) != strings.TrimSpace(exp) {
				match = false
				break
			}
		}
		if match {
			start = i
			break
		}
	}
	if start == -1 {
		return "", false
	}

	merged := make([]string, 0, len(contentLines)-len(expectedLines)+len(replacementLines))
	merged = append(merged, contentLines[:start]...)
	merged = append(merged, replacementLines...)
	merged = append(merged, contentLines[start+len(expectedLines):]...)

	result := strings.Join(merged, "\n")
	if strings.HasSuffix(content, "\n") && !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result, true
}

func makeBackup(path string) (string, error) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, "."+base+"_*.bak")
	if err != nil {
		return "", err
	}
	backup := tmp.Name()

	src, err := os.Open(path)
	if err != nil {
		tmp.Close()
		os.Remove(backup)
		return "", err
	}
	defer src.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(backup)
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(backup)
		return "", err
	}
	return backup, nil
}

func restoreBackup(path, backup string) {
	if backup == "" {
		return
	}
	if data, err := os.ReadFile(backup); err == nil {
		os.WriteFile(path, data, 0o644)
	}
	os.Remove(backup)
}

// Hash returns the MD5 hex digest of content, used to detect files that
// changed between review and apply.
func Hash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// FileHash returns the MD5 hex digest of the file's content, or an error
// if the file cannot be read.
func FileHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Hash(string(data)), nil
}

// FileModified reports whether the file's content no longer matches the
// expected hash. An unreadable file counts as modified.
func FileModified(path, expectedHash string) bool {
	current, err := FileHash(path)
	if err != nil {
		return true
	}
	return current != expectedHash
}
