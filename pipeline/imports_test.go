package pipeline

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// TestCoreImportsNoOpenCV checks the processing core and the packages it
// imports build without the OpenCV bindings
func TestCoreImportsNoOpenCV(t *testing.T) {

	dirs := []string{".", "..", "../geometry", "../preprocess", "../postprocess"}

	for _, dir := range dirs {
		files, err := filepath.Glob(filepath.Join(dir, "*.go"))

		if err != nil {
			t.Fatalf("error listing %s: %v", dir, err)
		}

		if len(files) == 0 {
			t.Fatalf("no source files found in %s", dir)
		}

		for _, file := range files {
			f, err := parser.ParseFile(token.NewFileSet(), file, nil, parser.ImportsOnly)

			if err != nil {
				t.Fatalf("error parsing %s: %v", file, err)
			}

			for _, imp := range f.Imports {
				path, _ := strconv.Unquote(imp.Path.Value)

				if strings.HasPrefix(path, "gocv.io/") {
					t.Errorf("%s imports %s", file, path)
				}
			}
		}
	}
}
