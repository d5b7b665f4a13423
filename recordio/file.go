package recordio

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/juju/errors"
)

// LoadFile reads a training corpus from path: one JSON-encoded Record per
// line, blank lines ignored. This is the on-disk counterpart to the
// in-memory Reader the engine itself assumes (spec §5 treats record
// sourcing as an out-of-scope collaborator); it is how the train CLI
// command turns a corpus file into the []Record NewShuffledReader wants.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	return decodeLines(f)
}

func decodeLines(r io.Reader) ([]Record, error) {
	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, errors.Annotate(err, "recordio: decode record")
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return records, nil
}
