package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/lydakis/dockrest/internal/resource"
)

type outputMode int

const (
	outputModeText outputMode = iota
	outputModeJSON
)

func (m outputMode) isJSON() bool {
	return m == outputModeJSON
}

func outputModeOf(args commandArgs) outputMode {
	if args.has("json") {
		return outputModeJSON
	}
	return outputModeText
}

const shortIDLen = 12

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// writeIDs prints one short ID per line, or the full IDs as a JSON array.
func writeIDs(w io.Writer, mode outputMode, list []*resource.Resource) error {
	if mode.isJSON() {
		ids := make([]string, 0, len(list))
		for _, r := range list {
			ids = append(ids, r.ID)
		}
		return writeJSON(w, ids)
	}
	for _, r := range list {
		fmt.Fprintln(w, shortID(r.ID))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
