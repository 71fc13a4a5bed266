//go:build !linux

package indexer

func statEntry(path string) (EntryInfo, error) {
	return statModTime(path)
}
