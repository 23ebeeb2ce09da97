package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"nas-media-catalog/internal/mediatypes"
)

func seedFiles(t *testing.T, db *Database) {
	t.Helper()

	upnp := []MediaFile{
		testFile("http://nas/1.mp3", "Blue Train", mediatypes.FileTypeAudio),
		testFile("http://nas/2.mkv", "Holiday Video", mediatypes.FileTypeVideo),
		testFile("http://nas/3.flac", "blue in green", mediatypes.FileTypeAudio),
	}
	upnp[1].MimeType = "video/x-matroska"
	upnp[1].Size = 500 << 20
	upnp[2].ParentPath = "Music/Jazz"

	if _, err := db.ReplaceShareFiles(context.Background(), "UPnP", upnp); err != nil {
		t.Fatalf("seed UPnP: %v", err)
	}
	if _, err := db.ReplaceShareFiles(context.Background(), "Archive", []MediaFile{
		testFile("http://nas/old.mp3", "100% Hits_2", mediatypes.FileTypeAudio),
	}); err != nil {
		t.Fatalf("seed Archive: %v", err)
	}
}

func names(files []MediaFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestReplaceShareFilesReplacesOnlyThatShare(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	seedFiles(t, db)

	n, err := db.ReplaceShareFiles(ctx, "UPnP", []MediaFile{
		testFile("http://nas/4.mp3", "New Song", mediatypes.FileTypeAudio),
		testFile("http://nas/4.mp3", "Duplicate", mediatypes.FileTypeAudio),
		{Path: "", Name: "empty"},
	})
	if err != nil {
		t.Fatalf("ReplaceShareFiles: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row written, got %d", n)
	}

	upnp, err := db.GetMediaFiles(ctx, MediaFilter{Share: "UPnP"})
	if err != nil {
		t.Fatalf("GetMediaFiles: %v", err)
	}
	if diff := cmp.Diff([]string{"New Song"}, names(upnp)); diff != "" {
		t.Errorf("UPnP share mismatch (-want +got):\n%s", diff)
	}

	archive, err := db.GetMediaFiles(ctx, MediaFilter{Share: "Archive"})
	if err != nil {
		t.Fatalf("GetMediaFiles: %v", err)
	}
	if len(archive) != 1 {
		t.Errorf("expected Archive share to be untouched, got %d files", len(archive))
	}
}

func TestReplaceShareFilesRoundTripsFields(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	in := MediaFile{
		Path:        "http://nas:8200/MediaItems/7.mp3",
		Name:        "Track",
		ParentPath:  "Music/Album",
		Size:        4321,
		Duration:    3*time.Minute + 25*time.Second + 500*time.Millisecond,
		ModTime:     time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC),
		Type:        mediatypes.FileTypeAudio,
		MimeType:    "audio/mpeg",
		AlbumArtURL: "http://nas:8200/AlbumArt/7.jpg",
		SMBURL:      "smb://u:p@nas/Media/7.mp3",
	}
	if _, err := db.ReplaceShareFiles(ctx, "UPnP", []MediaFile{in}); err != nil {
		t.Fatalf("ReplaceShareFiles: %v", err)
	}

	files, err := db.GetMediaFiles(ctx, MediaFilter{})
	if err != nil || len(files) != 1 {
		t.Fatalf("GetMediaFiles = %d files, %v", len(files), err)
	}
	got := files[0]

	if got.ID == 0 || got.CachedAt.IsZero() {
		t.Errorf("expected ID and CachedAt to be set, got %d and %v", got.ID, got.CachedAt)
	}
	if got.ShareName != "UPnP" {
		t.Errorf("ShareName = %q, want UPnP", got.ShareName)
	}
	if !got.ModTime.Equal(in.ModTime) {
		t.Errorf("ModTime = %v, want %v", got.ModTime, in.ModTime)
	}

	got.ID, got.CachedAt, got.ShareName, got.ModTime = 0, time.Time{}, "", time.Time{}
	in.ModTime = time.Time{}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	byID, err := db.GetMediaFile(ctx, files[0].ID)
	if err != nil {
		t.Fatalf("GetMediaFile: %v", err)
	}
	if byID.Path != in.Path {
		t.Errorf("GetMediaFile path = %q, want %q", byID.Path, in.Path)
	}
}

func TestGetMediaFileNotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	if _, err := db.GetMediaFile(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetMediaFilesFilters(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	seedFiles(t, db)

	tests := []struct {
		name   string
		filter MediaFilter
		want   []string
	}{
		{"all sorted by name", MediaFilter{}, []string{"100% Hits_2", "blue in green", "Blue Train", "Holiday Video"}},
		{"by share", MediaFilter{Share: "Archive"}, []string{"100% Hits_2"}},
		{"by type", MediaFilter{Type: mediatypes.FileTypeVideo}, []string{"Holiday Video"}},
		{"search is case insensitive", MediaFilter{Search: "BLUE"}, []string{"blue in green", "Blue Train"}},
		{"search matches folder", MediaFilter{Search: "jazz"}, []string{"blue in green"}},
		{"search escapes wildcards", MediaFilter{Search: "0%"}, []string{"100% Hits_2"}},
		{"underscore is literal", MediaFilter{Search: "s_2"}, []string{"100% Hits_2"}},
		{"combined", MediaFilter{Share: "UPnP", Type: mediatypes.FileTypeAudio, Search: "train"}, []string{"Blue Train"}},
		{"size descending", MediaFilter{SortField: mediatypes.SortBySize, SortOrder: mediatypes.SortDesc, Limit: 1}, []string{"Holiday Video"}},
		{"limit and offset", MediaFilter{Limit: 2, Offset: 1}, []string{"blue in green", "Blue Train"}},
		{"no match", MediaFilter{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			files, err := db.GetMediaFiles(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("GetMediaFiles: %v", err)
			}
			if diff := cmp.Diff(tt.want, names(files)); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetMediaFilesByPaths(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	var files []MediaFile
	for i := 0; i < 1200; i++ {
		files = append(files, testFile(fmt.Sprintf("http://nas/%04d.mp3", i), fmt.Sprintf("Song %d", i), mediatypes.FileTypeAudio))
	}
	if _, err := db.ReplaceShareFiles(ctx, "UPnP", files); err != nil {
		t.Fatalf("ReplaceShareFiles: %v", err)
	}

	paths := []string{"http://nas/0001.mp3", "http://nas/missing.mp3", "http://nas/1199.mp3", "http://nas/0001.mp3"}
	for i := 100; i < 700; i++ {
		paths = append(paths, fmt.Sprintf("http://nas/%04d.mp3", i))
	}

	found, err := db.GetMediaFilesByPaths(ctx, paths)
	if err != nil {
		t.Fatalf("GetMediaFilesByPaths: %v", err)
	}
	if len(found) != 602 {
		t.Errorf("expected 602 files, got %d", len(found))
	}
	if _, ok := found["http://nas/missing.mp3"]; ok {
		t.Error("missing path should not be in the result")
	}
	if found["http://nas/1199.mp3"].Name != "Song 1199" {
		t.Errorf("unexpected file for 1199: %+v", found["http://nas/1199.mp3"])
	}

	empty, err := db.GetMediaFilesByPaths(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty result for no paths, got %d, %v", len(empty), err)
	}
}

func TestGetCacheStats(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	seedFiles(t, db)

	stats, err := db.GetCacheStats(ctx)
	if err != nil {
		t.Fatalf("GetCacheStats: %v", err)
	}

	if stats.TotalFiles != 4 {
		t.Errorf("TotalFiles = %d, want 4", stats.TotalFiles)
	}
	if diff := cmp.Diff(map[string]int{"UPnP": 3, "Archive": 1}, stats.ByShare); diff != "" {
		t.Errorf("ByShare mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"audio": 3, "video": 1}, stats.ByType); diff != "" {
		t.Errorf("ByType mismatch (-want +got):\n%s", diff)
	}
	if stats.LastScan != nil {
		t.Errorf("expected no last scan, got %v", stats.LastScan)
	}

	scanned := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	if err := db.SetLastScan(ctx, scanned, "FRITZ!Box"); err != nil {
		t.Fatalf("SetLastScan: %v", err)
	}
	stats, err = db.GetCacheStats(ctx)
	if err != nil {
		t.Fatalf("GetCacheStats: %v", err)
	}
	if stats.LastScan == nil || !stats.LastScan.Equal(scanned) {
		t.Errorf("LastScan = %v, want %v", stats.LastScan, scanned)
	}
}

func TestCatalogStats(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	seedFiles(t, db)

	if _, err := db.CreatePlaylist(ctx, PlaylistInput{Name: "Mix", FilePaths: []string{"http://nas/1.mp3"}}); err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}

	stats, err := db.CatalogStats(ctx)
	if err != nil {
		t.Fatalf("CatalogStats: %v", err)
	}
	if stats.Playlists != 1 || stats.Shares != 2 || stats.FilesByType["audio"] != 3 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestMediaFileJSONIncludesDurationSeconds(t *testing.T) {
	t.Parallel()

	data, err := testFile("http://nas/a.mp3", "A", mediatypes.FileTypeAudio).MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if !strings.Contains(string(data), `"durationSeconds":180`) {
		t.Errorf("expected durationSeconds in %s", data)
	}
	if !strings.Contains(string(data), `"fileType":"audio"`) {
		t.Errorf("expected fileType in %s", data)
	}
}
