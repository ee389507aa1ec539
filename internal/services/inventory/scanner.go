package inventory

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// installedName matches installed episode files: a 12-hex identifier stem
// plus a known audio extension
var installedName = regexp.MustCompile(`^([a-f0-9]{12})\.(?i:mp3|m4a|aac|mp4|ogg|flac)$`)

// audioExts are the extensions considered audio by the raw-directory scan
var audioExts = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".mp4":  true,
	".ogg":  true,
	".flac": true,
	".opus": true,
	".wav":  true,
}

// FileEntry describes one file found on disk
type FileEntry struct {
	Filename string
	Path     string
	ModTime  time.Time
	Size     int64
}

// Scan indexes installed episode files in dir by identifier stem. A missing
// or unreadable directory yields an empty inventory, not an error: before
// the first download there is nothing to find.
func Scan(dir string) map[string]FileEntry {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return map[string]FileEntry{}
	}

	inventory := make(map[string]FileEntry)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := installedName.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		inventory[m[1]] = FileEntry{
			Filename: entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		}
	}

	return inventory
}

// ScanAudio lists every audio file in dir regardless of naming, for
// playlists built from arbitrary directories. Order is modification time,
// oldest first.
func ScanAudio(dir string) []FileEntry {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var files []FileEntry
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !audioExts[ext] {
			continue
		}
		// Skip in-flight download temps
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileEntry{
			Filename: entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Filename < files[j].Filename
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})

	return files
}
