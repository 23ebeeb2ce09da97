package catalog

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"nas-media-catalog/internal/database"
	"nas-media-catalog/internal/mediatypes"
)

const (
	recentWindow      = 30 * 24 * time.Hour
	largeFileSize     = 100 * 1024 * 1024
	compatibleMinimum = 3
	compatibleLimit   = 20
)

// Suggestion is a generated playlist that has not been stored.
type Suggestion struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	FilePaths   []string `json:"filePaths"`
}

// AutoPlaylists groups files by type ("All AUDIO Files") and by top-level
// folder ("Directory: Music"). Groups with a single file are left out.
// Groups appear in the order their first file does.
func AutoPlaylists(files []database.MediaFile) []Suggestion {
	var out []Suggestion

	byType := newGroups()
	for _, f := range files {
		byType.add(string(f.Type), f.Path)
	}
	for _, g := range byType.ordered() {
		if len(g.paths) > 1 {
			out = append(out, Suggestion{
				Name:        fmt.Sprintf("All %s Files", strings.ToUpper(g.key)),
				Description: fmt.Sprintf("Auto-generated playlist for all %s files", g.key),
				FilePaths:   g.paths,
			})
		}
	}

	byDir := newGroups()
	for _, f := range files {
		if dir := topLevelFolder(f.ParentPath); dir != "" {
			byDir.add(dir, f.Path)
		}
	}
	for _, g := range byDir.ordered() {
		if len(g.paths) > 1 {
			out = append(out, Suggestion{
				Name:        "Directory: " + g.key,
				Description: fmt.Sprintf("Auto-generated playlist for directory '%s'", g.key),
				FilePaths:   g.paths,
			})
		}
	}

	return out
}

// SmartPlaylists builds the rule-based suggestions. Empty suggestions are
// left out.
func SmartPlaylists(files []database.MediaFile, now time.Time) []Suggestion {
	var recent, large, audio, video []string
	threshold := now.Add(-recentWindow)
	for _, f := range files {
		if f.ModTime.After(threshold) {
			recent = append(recent, f.Path)
		}
		if f.Size > largeFileSize {
			large = append(large, f.Path)
		}
		switch f.Type {
		case mediatypes.FileTypeAudio:
			audio = append(audio, f.Path)
		case mediatypes.FileTypeVideo:
			video = append(video, f.Path)
		}
	}

	var out []Suggestion
	add := func(name, description string, paths []string) {
		if len(paths) > 0 {
			out = append(out, Suggestion{Name: name, Description: description, FilePaths: paths})
		}
	}
	add("Recently Added", "Files added in the last 30 days", recent)
	add("Large Files", "Files larger than 100MB", large)
	add("Audio Collection", "All audio files", audio)
	add("Video Collection", "All video files", video)
	add("UPnP Compatible Videos", "Video files optimized for reliable UPnP/DLNA playback in VLC", CompatibleVideos(files))

	return out
}

// CompatibleVideos scores video files by traits that tend to play reliably
// over UPnP in VLC and returns up to 20 paths scoring at least 3, best first.
// Ties keep cache order.
func CompatibleVideos(files []database.MediaFile) []string {
	var videos []database.MediaFile
	total := 0
	for _, f := range files {
		if f.Type == mediatypes.FileTypeVideo {
			videos = append(videos, f)
			total += utf8.RuneCountInString(f.Path)
		}
	}
	if len(videos) == 0 {
		return nil
	}
	avg := float64(total) / float64(len(videos))

	type scored struct {
		path  string
		score int
	}
	var candidates []scored
	for _, f := range videos {
		if s := compatibilityScore(f, avg); s >= compatibleMinimum {
			candidates = append(candidates, scored{f.Path, s})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > compatibleLimit {
		candidates = candidates[:compatibleLimit]
	}

	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.path
	}
	return paths
}

func compatibilityScore(f database.MediaFile, avgPathLen float64) int {
	score := 0

	switch {
	case strings.Contains(f.Path, "DLNA-11-0"):
		score += 3
	case strings.Contains(f.Path, "DLNA-0-0"):
		score += 2
	case strings.Contains(f.Path, "DLNA-8-0"):
		score++
	}

	switch containerExt(f) {
	case ".mp4":
		score += 3
	case ".mkv":
		score += 2
	case ".avi":
		score++
	}

	if !strings.HasPrefix(f.Name, "._") {
		score += 2
	}

	if float64(utf8.RuneCountInString(f.Path)) < avgPathLen {
		score++
	}

	special := 0
	for _, c := range []string{"'", "(", ")", "[", "]", "&", "%"} {
		if strings.Contains(f.Name, c) {
			special++
		}
	}
	if special <= 2 {
		score++
	} else if special > 5 {
		score--
	}

	if isASCII(f.Name) {
		score++
	}

	return score
}

// containerExt is the file name extension, or one derived from the MIME type
// when the name has none (UPnP titles rarely carry one).
func containerExt(f database.MediaFile) string {
	if ext := strings.ToLower(path.Ext(f.Name)); ext != "" {
		if _, ok := mediatypes.MimeTypes[ext]; ok {
			return ext
		}
	}
	switch mediatypes.NormalizeMIME(f.MimeType) {
	case "video/mp4":
		return ".mp4"
	case "video/x-matroska":
		return ".mkv"
	case "video/x-msvideo", "video/avi":
		return ".avi"
	}
	return ""
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// topLevelFolder returns the first segment of a slash separated folder path.
func topLevelFolder(parent string) string {
	parent = strings.Trim(parent, "/")
	dir, _, _ := strings.Cut(parent, "/")
	return strings.TrimSpace(dir)
}

type group struct {
	key   string
	paths []string
}

// groups collects paths by key, remembering first-seen key order.
type groups struct {
	index map[string]int
	list  []group
}

func newGroups() *groups {
	return &groups{index: make(map[string]int)}
}

func (g *groups) add(key, p string) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.list)
		g.index[key] = i
		g.list = append(g.list, group{key: key})
	}
	g.list[i].paths = append(g.list[i].paths, p)
}

func (g *groups) ordered() []group {
	return g.list
}
