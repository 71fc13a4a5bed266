package store

import (
	"fmt"
	"regexp"
	"sync"
)

// maxCachedPatterns bounds the compiled-pattern cache; it is cleared when full.
const maxCachedPatterns = 64

var patternCache = struct {
	sync.Mutex
	m map[string]*regexp.Regexp
}{m: make(map[string]*regexp.Regexp)}

// matchPattern implements SQL "value REGEXP pattern", which SQLite evaluates as
// regexp(pattern, value). The match is unanchored.
func matchPattern(pattern, value string) (bool, error) {
	re, err := compilePattern(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	patternCache.Lock()
	defer patternCache.Unlock()

	if re, ok := patternCache.m[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if len(patternCache.m) >= maxCachedPatterns {
		patternCache.m = make(map[string]*regexp.Regexp)
	}
	patternCache.m[pattern] = re
	return re, nil
}
