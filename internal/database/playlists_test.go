package database

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCreatePlaylistPreservesOrder(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	paths := []string{"http://nas/3.mp3", "http://nas/1.mp3", "http://nas/2.mp3", "http://nas/1.mp3"}
	created, err := db.CreatePlaylist(ctx, PlaylistInput{Name: "Road Trip", Description: "summer", FilePaths: paths})
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected playlist ID to be set")
	}

	got, err := db.GetPlaylist(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetPlaylist: %v", err)
	}
	if diff := cmp.Diff(paths, got.FilePaths); diff != "" {
		t.Errorf("file order changed (-want +got):\n%s", diff)
	}
	if got.Name != "Road Trip" || got.Description != "summer" {
		t.Errorf("unexpected playlist: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestCreatePlaylistDuplicateName(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	in := PlaylistInput{Name: "Dup", FilePaths: []string{"http://nas/1.mp3"}}
	if _, err := db.CreatePlaylist(ctx, in); err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if _, err := db.CreatePlaylist(ctx, in); !errors.Is(err, ErrPlaylistExists) {
		t.Errorf("expected ErrPlaylistExists, got %v", err)
	}

	playlists, err := db.GetPlaylists(ctx)
	if err != nil {
		t.Fatalf("GetPlaylists: %v", err)
	}
	if len(playlists) != 1 {
		t.Errorf("expected failed insert to roll back, got %d playlists", len(playlists))
	}
}

func TestGetPlaylists(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	first, err := db.CreatePlaylist(ctx, PlaylistInput{Name: "First", FilePaths: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	second, err := db.CreatePlaylist(ctx, PlaylistInput{Name: "Second", FilePaths: []string{"c"}})
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}

	playlists, err := db.GetPlaylists(ctx)
	if err != nil {
		t.Fatalf("GetPlaylists: %v", err)
	}
	if len(playlists) != 2 {
		t.Fatalf("expected 2 playlists, got %d", len(playlists))
	}

	byID := map[int64]Playlist{}
	for _, p := range playlists {
		byID[p.ID] = p
	}
	if diff := cmp.Diff([]string{"a", "b"}, byID[first.ID].FilePaths); diff != "" {
		t.Errorf("first playlist items mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c"}, byID[second.ID].FilePaths); diff != "" {
		t.Errorf("second playlist items mismatch (-want +got):\n%s", diff)
	}
	if playlists[0].ID != second.ID {
		t.Errorf("expected newest playlist first, got %q", playlists[0].Name)
	}
}

func TestGetPlaylistsEmpty(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	playlists, err := db.GetPlaylists(context.Background())
	if err != nil {
		t.Fatalf("GetPlaylists: %v", err)
	}
	if playlists == nil || len(playlists) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", playlists)
	}
}

func TestUpdatePlaylist(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	p, err := db.CreatePlaylist(ctx, PlaylistInput{Name: "Old", FilePaths: []string{"a", "b", "c"}})
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if _, err := db.CreatePlaylist(ctx, PlaylistInput{Name: "Taken", FilePaths: []string{"x"}}); err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}

	updated, err := db.UpdatePlaylist(ctx, p.ID, PlaylistInput{Name: "New", Description: "d", FilePaths: []string{"c", "a"}})
	if err != nil {
		t.Fatalf("UpdatePlaylist: %v", err)
	}
	if updated.Name != "New" || updated.Description != "d" {
		t.Errorf("unexpected playlist after update: %+v", updated)
	}
	if diff := cmp.Diff([]string{"c", "a"}, updated.FilePaths); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	if _, err := db.UpdatePlaylist(ctx, p.ID, PlaylistInput{Name: "Taken", FilePaths: []string{"a"}}); !errors.Is(err, ErrPlaylistExists) {
		t.Errorf("expected ErrPlaylistExists on rename to taken name, got %v", err)
	}
	if _, err := db.UpdatePlaylist(ctx, 9999, PlaylistInput{Name: "Ghost", FilePaths: []string{"a"}}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePlaylist(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	p, err := db.CreatePlaylist(ctx, PlaylistInput{Name: "Gone", FilePaths: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}

	if err := db.DeletePlaylist(ctx, p.ID); err != nil {
		t.Fatalf("DeletePlaylist: %v", err)
	}
	if _, err := db.GetPlaylist(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	var items int
	if err := db.db.QueryRow("SELECT COUNT(*) FROM playlist_items WHERE playlist_id = ?", p.ID).Scan(&items); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if items != 0 {
		t.Errorf("expected items to be removed, got %d", items)
	}

	if err := db.DeletePlaylist(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
