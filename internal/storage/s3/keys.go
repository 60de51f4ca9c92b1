package s3

import "strings"

// NormalizeKey maps a logical key to the physical object key under prefix.
// One leading "/" is dropped from key, one leading and one trailing "/" from
// prefix. With an empty prefix the key is returned without a separator.
func NormalizeKey(prefix, key string) string {
	key = strings.TrimPrefix(key, "/")
	prefix = cleanPrefix(prefix)
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// LogicalKey reverses NormalizeKey for keys returned by a listing. It reports
// false when physical does not live under prefix.
func LogicalKey(prefix, physical string) (string, bool) {
	prefix = cleanPrefix(prefix)
	if prefix == "" {
		return physical, true
	}
	return strings.CutPrefix(physical, prefix+"/")
}

func cleanPrefix(prefix string) string {
	prefix = strings.TrimPrefix(prefix, "/")
	return strings.TrimSuffix(prefix, "/")
}

// listPrefix is the ListObjectsV2 prefix for a scoped listing; empty lists the bucket.
func listPrefix(prefix string) string {
	prefix = cleanPrefix(prefix)
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
