package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseParfile reads a SeaDAS-style parameter file: one key=value pair
// per line, blank lines and '#'-prefixed comments ignored. The grammar
// mirrors the teacher's PROCESSING_PARAMETERS decode (key=value tokens,
// lower-cased keys) but over a text stream instead of a length-prefixed
// binary record.
func ParseParfile(r io.Reader) (*Config, error) {
	tokens := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, err := splitToken(line)
		if err != nil {
			return nil, fmt.Errorf("config: parfile: %w", err)
		}
		tokens[key] = val
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: parfile: %w", err)
	}

	return FromTokens(tokens)
}

// ParseTokens parses a list of positional "key=value" CLI arguments,
// e.g. ["infile=a.L2", "ofile=out.nc", "sday=2007050"].
func ParseTokens(args []string) (*Config, error) {
	tokens := make(map[string]string, len(args))
	for _, a := range args {
		key, val, err := splitToken(a)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		tokens[key] = val
	}
	return FromTokens(tokens)
}

func splitToken(tok string) (key, val string, err error) {
	i := strings.IndexByte(tok, '=')
	if i < 0 {
		return "", "", fmt.Errorf("malformed token %q, want key=value", tok)
	}
	return strings.ToLower(strings.TrimSpace(tok[:i])), strings.TrimSpace(tok[i+1:]), nil
}

// FromTokens builds and validates a Config from a parsed key=value
// token map. Unrecognised keys are ignored; the caller is responsible
// for the "parfile=" indirection (handled by cmd/l2bin's loadConfig).
func FromTokens(tokens map[string]string) (*Config, error) {
	c := &Config{}

	if v, ok := tokens["infile"]; ok {
		c.InFiles = splitSingleDelimiter(v)
	}
	if v, ok := tokens["ofile"]; ok {
		c.OutFile = v
	}
	if v, ok := tokens["sensor"]; ok {
		c.Sensor = v
	}
	if v, ok := tokens["sday"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: sday=%q: %w", v, err)
		}
		c.StartDay = n
	}
	if v, ok := tokens["eday"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: eday=%q: %w", v, err)
		}
		c.EndDay = n
	} else {
		c.EndDay = c.StartDay
	}
	if v, ok := tokens["resolve"]; ok {
		c.Resolution = Resolution(strings.ToUpper(v))
	}
	if v, ok := tokens["flaguse"]; ok {
		c.FlagUse = v
	}
	if v, ok := tokens["l3bprod"]; ok {
		specs, expandedAll, err := ParseProductList(v)
		if err != nil {
			return nil, fmt.Errorf("config: l3bprod: %w", err)
		}
		c.Products = specs
		c.ExpandedAll = expandedAll
	}
	if v, ok := tokens["prodtype"]; ok {
		c.ProductType = ProductType(v)
	}
	if v, ok := tokens["noext"]; ok {
		c.NoExt = v == "1"
	}
	if v, ok := tokens["rowgroup"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: rowgroup=%q: %w", v, err)
		}
		c.RowGroup = n
	}
	if v, ok := tokens["night"]; ok {
		c.Night = v == "1"
	}
	if v, ok := tokens["qual_prod"]; ok {
		c.QualityProduct = v
	}
	if v, ok := tokens["qual_max"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: qual_max=%q: %w", v, err)
		}
		c.QualityMax = n
	}
	if v, ok := tokens["minobs"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: minobs=%q: %w", v, err)
		}
		c.MinObs = n
	}
	if v, ok := tokens["average"]; ok {
		mode, product := parseAveraging(v)
		c.Averaging = mode
		c.AveragingProduct = product
	}
	if v, ok := tokens["pversion"]; ok {
		c.ProductionVersion = v
	}
	if v, ok := tokens["verbose"]; ok {
		c.Verbose = v == "1"
	}
	if v, ok := tokens["dc_info"]; ok {
		c.DCInfo = v == "1"
	}
	if v, ok := tokens["west"]; ok {
		c.LonWest = parseFloatPtr(v)
	}
	if v, ok := tokens["east"]; ok {
		c.LonEast = parseFloatPtr(v)
	}
	if v, ok := tokens["south"]; ok {
		c.LatSouth = parseFloatPtr(v)
	}
	if v, ok := tokens["north"]; ok {
		c.LatNorth = parseFloatPtr(v)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseFloatPtr(v string) *float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseAveraging splits an "average=" value like "median:chlor_a" or
// "midaverage:nLw_555" or "mean" into its mode and the product name P
// designates (§4.6; P selects which product's value drives the bin-level
// selection/compaction, not a percentile).
func parseAveraging(v string) (AveragingMode, string) {
	parts := strings.SplitN(v, ":", 2)
	mode := AveragingMode(parts[0])
	if len(parts) == 1 {
		return mode, ""
	}
	return mode, parts[1]
}

// splitSingleDelimiter splits an infile list on whichever of ':'/','/' '
// is present, tolerating a single delimiter choice (unlike l3bprod, the
// spec does not require rejecting mixed delimiters here since infile
// lists are typically newline- or comma-joined file manifests).
func splitSingleDelimiter(v string) []string {
	for _, d := range []string{",", ":", " "} {
		if strings.Contains(v, d) {
			return splitNonEmpty(v, d)
		}
	}
	return []string{v}
}

func splitNonEmpty(v, sep string) []string {
	var out []string
	for _, p := range strings.Split(v, sep) {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
