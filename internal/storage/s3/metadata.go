package s3

import "strings"

// UserMetadataPrefix is the reserved header prefix S3 uses for user metadata.
const UserMetadataPrefix = "x-amz-meta-"

// NormalizeMetadata returns a copy of meta in which every key carries the
// reserved user-metadata prefix. Keys that already start with it, in any
// letter case, are kept as given.
func NormalizeMetadata(meta map[string]string) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		if !hasMetaPrefix(k) {
			k = UserMetadataPrefix + k
		}
		out[k] = v
	}
	return out
}

// sdkMetadata converts normalised metadata into the PutObject Metadata field.
// The SDK writes each entry as an x-amz-meta- header itself.
func sdkMetadata(normalized map[string]string) map[string]string {
	if len(normalized) == 0 {
		return nil
	}
	out := make(map[string]string, len(normalized))
	for k, v := range normalized {
		out[k[len(UserMetadataPrefix):]] = v
	}
	return out
}

// userMetadata converts the Metadata field of a HeadObject response back
// into the caller's names. The SDK lower-cases keys on the way in.
func userMetadata(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		if hasMetaPrefix(k) {
			k = k[len(UserMetadataPrefix):]
		}
		out[strings.ToLower(k)] = v
	}
	return out
}

func hasMetaPrefix(k string) bool {
	return len(k) >= len(UserMetadataPrefix) && strings.EqualFold(k[:len(UserMetadataPrefix)], UserMetadataPrefix)
}
