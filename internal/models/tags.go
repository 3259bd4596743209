package models

import "encoding/json"

// DecodeTags parses a JSON array of strings. Malformed input, null, null or
// non-string elements and the empty string all decode to an empty slice.
func DecodeTags(raw string) []string {
	var elems []*string
	if err := json.Unmarshal([]byte(raw), &elems); err != nil || elems == nil {
		return []string{}
	}
	tags := make([]string, 0, len(elems))
	for _, e := range elems {
		if e == nil {
			return []string{}
		}
		tags = append(tags, *e)
	}
	return tags
}

// EncodeTags serializes tags for storage. A nil slice is stored as "[]".
func EncodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}
