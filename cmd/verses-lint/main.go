// cmd/verses-lint checks TXT verse files before import. Usage:
// verses-lint [dir]  (defaults to ./verses)
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"biblereader/booknames"
	"biblereader/services"
	"biblereader/verseparser"
)

func main() {
	dir := "./verses"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		fmt.Println("error: cannot read", dir+":", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("no .txt verse files found in", dir)
		return
	}

	exitCode := 0
	for _, f := range files {
		bad, err := lintFile(f, booknames.Default())
		if err != nil {
			fmt.Printf("%s: %v\n", f, err)
			exitCode = 1
			continue
		}
		if bad == 0 {
			fmt.Printf("%s: OK\n", f)
		} else {
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

// lintFile prints every line that would be skipped on import and returns
// how many there were.
func lintFile(path string, catalog *booknames.Catalog) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open error: %w", err)
	}
	defer file.Close()

	translation := services.TranslationFromFilename(path)
	sc := bufio.NewScanner(file)
	lineNum := 0
	bad := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		ref, _, ok := verseparser.ParseNumberedLine(line)
		if !ok {
			fmt.Printf("%s:%d: does not match 'N. <Reference> — <Text>'\n", path, lineNum)
			bad++
			continue
		}
		addr, err := services.ResolveReference(catalog, ref, translation)
		if err != nil {
			fmt.Printf("%s:%d: %v\n", path, lineNum, err)
			bad++
			continue
		}
		if addr.IsChapter() || addr.IsRange() {
			fmt.Printf("%s:%d: %s is not a single verse\n", path, lineNum, addr)
			bad++
		}
	}
	if err := sc.Err(); err != nil {
		return bad, fmt.Errorf("scan error: %w", err)
	}
	return bad, nil
}
