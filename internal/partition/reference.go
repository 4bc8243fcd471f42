package partition

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ErrMissingReferenceList reports that a published list file is absent.
var ErrMissingReferenceList = errors.New("reference list missing")

// ReadReferenceSet reads every line of r, keeping line terminators. A final
// line without a newline is kept as-is.
func ReadReferenceSet(r io.Reader) (ReferenceSet, error) {
	set := make(ReferenceSet)
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			set[line] = struct{}{}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return set, nil
			}
			return nil, err
		}
	}
}

// LoadReferenceList reads a published list file. A missing file is an error:
// acquisition must have completed first.
func LoadReferenceList(path string) (ReferenceSet, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingReferenceList, path)
		}
		return nil, fmt.Errorf("open reference list: %w", err)
	}
	defer f.Close()

	set, err := ReadReferenceSet(f)
	if err != nil {
		return nil, fmt.Errorf("read reference list %s: %w", path, err)
	}
	return set, nil
}

// LoadReferenceLists loads the validation and testing lists.
func LoadReferenceLists(validationPath, testPath string) (References, error) {
	validation, err := LoadReferenceList(validationPath)
	if err != nil {
		return References{}, fmt.Errorf("validation list: %w", err)
	}
	test, err := LoadReferenceList(testPath)
	if err != nil {
		return References{}, fmt.Errorf("testing list: %w", err)
	}
	return References{Validation: validation, Test: test}, nil
}
