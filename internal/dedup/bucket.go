package dedup

import "strings"

// bucketKeys assigns a candidate title to its comparison buckets. The
// primary key is the first one-to-three significant tokens; multi-token
// keys also insert under the bare first token so titles differing by a
// trailing qualifier ("Nutcracker" vs "Nutcracker Ballet") still collide
// in at least one shared bucket. Only candidates sharing a bucket are
// ever compared, which keeps total comparisons near-linear.
func bucketKeys(title string) []string {
	tokens := titleTokens(title)
	if len(tokens) == 0 {
		return nil
	}

	n := len(tokens)
	if n > 3 {
		n = 3
	}
	key := strings.Join(tokens[:n], " ")

	if n > 1 {
		return []string{key, tokens[0]}
	}
	return []string{key}
}
