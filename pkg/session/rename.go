package session

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SanitizeName strips everything from s that is not a letter, digit, dot,
// dash, or underscore. Filenames in the log directory are built only from
// sanitized names.
func SanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PromptRename offers an interactive rename of the session's two log files
// after capture has ended and the files are closed. An empty answer keeps
// the timestamped defaults. A name colliding with existing files is refused.
// The returned paths are the final locations of the raw and clean logs;
// they equal the inputs whenever no rename happened.
func PromptRename(in io.Reader, out io.Writer, rawPath, cleanPath string) (string, string) {
	fmt.Fprint(out, "[?] Rename log files? (Leave empty to keep default): ")

	reader := bufio.NewReader(in)
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return rawPath, cleanPath
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return rawPath, cleanPath
	}

	name := SanitizeName(answer)
	if name == "" {
		fmt.Fprintln(out, "[!] Invalid name, keeping default.")
		return rawPath, cleanPath
	}

	dir := filepath.Dir(cleanPath)
	newRaw := filepath.Join(dir, name+".raw")
	newClean := filepath.Join(dir, name+".log")

	if exists(newRaw) || exists(newClean) {
		fmt.Fprintf(out, "[!] File %s already exists. Keeping timestamped default.\n", name)
		return rawPath, cleanPath
	}

	if err := os.Rename(rawPath, newRaw); err != nil {
		fmt.Fprintf(out, "[!] Rename failed: %v\n", err)
		return rawPath, cleanPath
	}
	if err := os.Rename(cleanPath, newClean); err != nil {
		// Raw already moved; report and keep what we have.
		fmt.Fprintf(out, "[!] Rename failed: %v\n", err)
		return newRaw, cleanPath
	}

	fmt.Fprintf(out, "[+] Renamed to: %s\n", newClean)
	return newRaw, newClean
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
