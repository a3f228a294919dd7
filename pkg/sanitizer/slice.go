package sanitizer

func NormalizeStringSlice(items []string, normalizer func(string) string) []string {
	if len(items) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))

	for _, item := range items {
		normalized := normalizer(item)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, normalized)
	}

	return result
}

func NormalizeTexts(items []string) []string {
	return NormalizeStringSlice(items, TrimAndNormalize)
}

func NormalizeLabels(items []string) []string {
	return NormalizeStringSlice(items, NormalizeLabel)
}
