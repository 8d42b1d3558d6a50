package cli

import (
	"encoding/json"
	"fmt"
	"strings"
)

// flagSpec maps every accepted spelling of a flag to its canonical name.
type flagSpec struct {
	bools  map[string]string
	values map[string]string
}

type commandArgs struct {
	bools      map[string]bool
	values     map[string][]string
	positional []string
}

func (a commandArgs) has(name string) bool { return a.bools[name] }

// value returns the last value given for name.
func (a commandArgs) value(name string) (string, bool) {
	vals := a.values[name]
	if len(vals) == 0 {
		return "", false
	}
	return vals[len(vals)-1], true
}

// parseCommandArgs reads flags up to the first positional argument or "--".
// Everything after that is positional, so a container command keeps its own
// flags.
func parseCommandArgs(args []string, spec flagSpec) (commandArgs, error) {
	parsed := commandArgs{
		bools:  make(map[string]bool),
		values: make(map[string][]string),
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			parsed.positional = append(parsed.positional, args[i+1:]...)
			return parsed, nil
		}
		if arg == "-" || !strings.HasPrefix(arg, "-") {
			parsed.positional = append(parsed.positional, args[i:]...)
			return parsed, nil
		}

		name, inline, hasInline := strings.Cut(arg, "=")
		if canonical, ok := spec.bools[name]; ok {
			if hasInline {
				return commandArgs{}, fmt.Errorf("flag %s does not take a value", name)
			}
			parsed.bools[canonical] = true
			continue
		}
		canonical, ok := spec.values[name]
		if !ok {
			return commandArgs{}, fmt.Errorf("unknown flag: %s", name)
		}
		if hasInline {
			parsed.values[canonical] = append(parsed.values[canonical], inline)
			continue
		}
		if i+1 >= len(args) {
			return commandArgs{}, fmt.Errorf("missing value for %s", name)
		}
		i++
		parsed.values[canonical] = append(parsed.values[canonical], args[i])
	}
	return parsed, nil
}

// parseEnvPairs validates KEY=VALUE entries for a container environment.
func parseEnvPairs(pairs []string) ([]string, error) {
	out := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		key, _, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --env %q, want KEY=VALUE", pair)
		}
		out = append(out, pair)
	}
	return out, nil
}

func parseJSONObject(raw string) (map[string]any, error) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("invalid JSON fields: %w", err)
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("JSON fields must be an object")
	}
	return obj, nil
}
