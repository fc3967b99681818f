package models

import "strings"

// InterestSeparator joins tags in the delimited form the remote API stores.
const InterestSeparator = ", "

// A tag can never contain the wire delimiter.
const interestDelimiter = ","

// Interests is an ordered set of interest tags. Order is insertion order.
type Interests []string

// ParseInterests reads the comma-delimited wire form: split on comma, trim,
// drop empties and duplicates.
func ParseInterests(s string) Interests {
	var out Interests
	for _, part := range strings.Split(s, interestDelimiter) {
		tag := strings.TrimSpace(part)
		if tag == "" || out.Contains(tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// String renders the delimited wire form.
func (in Interests) String() string {
	return strings.Join(in, InterestSeparator)
}

func (in Interests) Contains(tag string) bool {
	for _, t := range in {
		if t == tag {
			return true
		}
	}
	return false
}

func (in Interests) Clone() Interests {
	if in == nil {
		return nil
	}
	out := make(Interests, len(in))
	copy(out, in)
	return out
}

// Normalize trims tags and drops empties and duplicates, keeping first
// occurrence order. A tag holding the delimiter is split the way the wire
// form would split it.
func (in Interests) Normalize() Interests {
	var out Interests
	for _, raw := range in {
		for _, t := range strings.Split(raw, interestDelimiter) {
			t = strings.TrimSpace(t)
			if t == "" || out.Contains(t) {
				continue
			}
			out = append(out, t)
		}
	}
	return out
}

// ValidTag reports whether tag survives the wire form as a single tag.
func ValidTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	return tag != "" && !strings.Contains(tag, interestDelimiter)
}

// Toggle returns a new set with tag removed if present, appended otherwise.
// Blank tags and tags holding the delimiter leave the set unchanged. The
// receiver is not modified.
func (in Interests) Toggle(tag string) Interests {
	if !ValidTag(tag) {
		return in.Clone()
	}
	tag = strings.TrimSpace(tag)
	if !in.Contains(tag) {
		out := make(Interests, 0, len(in)+1)
		out = append(out, in...)
		return append(out, tag)
	}
	out := make(Interests, 0, len(in))
	for _, t := range in {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}
