package transcript

import "fmt"

// AssignNames maps each raw speaker label to a human-friendly display name
// ("Speaker 1", "Speaker 2", …) in order of first appearance across the
// paragraph sequence. The mapping is deterministic for a fixed paragraph
// order and is rebuilt fresh on every call.
func AssignNames(paragraphs []Paragraph) map[string]string {
	names := make(map[string]string)
	for _, p := range paragraphs {
		if _, ok := names[p.Speaker]; !ok {
			names[p.Speaker] = fmt.Sprintf("Speaker %d", len(names)+1)
		}
	}
	return names
}
