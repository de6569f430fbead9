package aws

// StringValue safely dereferences a string pointer, returning empty string if nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
