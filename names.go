package main

import "strings"

// cStrings returns names terminated with a NUL byte as the C API expects.
func cStrings(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if strings.HasSuffix(n, "\x00") {
			out[i] = n
			continue
		}
		out[i] = n + "\x00"
	}
	return out
}

// missingNames reports which required names are absent from available.
// NUL terminators on either side are ignored.
func missingNames(required, available []string) []string {
	have := make(map[string]bool, len(available))
	for _, a := range available {
		have[strings.TrimRight(a, "\x00")] = true
	}
	var missing []string
	for _, r := range required {
		name := strings.TrimRight(r, "\x00")
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
