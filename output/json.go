package output

import (
	"encoding/json"
	"fmt"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
)

// JsonDumps constructs a JSON string of the supplied data, adapted from
// the teacher's json.go for dumping a row-group's bin records or the
// global attributes for inspection.
func JsonDumps(data any) (string, error) {
	jsn, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(jsn), nil
}

// JsonIndentDumps is JsonDumps with four-space indentation.
func JsonIndentDumps(data any) (string, error) {
	jsn, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return "", err
	}
	return string(jsn), nil
}

// WriteJson serialises data to a JSON file through the TileDB VFS, so
// the same debugging sink works for a local path or an object-store URI
// (§4.7 supplement: optional JSON fan-out alongside the binary
// container).
func WriteJson(ctx *tiledb.Context, vfs *tiledb.VFS, fileURI string, data any) (int, error) {
	stream, err := vfs.Open(fileURI, tiledb.TILEDB_VFS_WRITE)
	if err != nil {
		return 0, fmt.Errorf("output: open %s for write: %w", fileURI, err)
	}
	defer stream.Close()

	jsn, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return 0, err
	}

	n, err := stream.Write(jsn)
	if err != nil {
		return 0, fmt.Errorf("output: write %s: %w", fileURI, err)
	}
	return n, nil
}
