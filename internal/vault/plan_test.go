package vault

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultsync/vaultsync/internal/lastmod"
)

type fakeResolver struct {
	times map[string]time.Time
	calls []string
}

func (f *fakeResolver) LastModified(_ context.Context, path string) (time.Time, error) {
	f.calls = append(f.calls, path)
	t, ok := f.times[path]
	if !ok {
		return time.Time{}, &lastmod.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
	}
	return t, nil
}

func at(sec int64) time.Time {
	return time.Unix(sec, 0)
}

func TestRank(t *testing.T) {
	tests := []struct {
		name      string
		a, b      time.Time
		wantFirst string
		wantTied  bool
	}{
		{name: "a newer", a: at(100), b: at(50), wantFirst: "/a"},
		{name: "b newer", a: at(50), b: at(100), wantFirst: "/b"},
		{name: "tie keeps input order", a: at(70), b: at(70), wantFirst: "/a", wantTied: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeResolver{times: map[string]time.Time{"/a": tt.a, "/b": tt.b}}
			ranked, err := Rank(context.Background(), r, "/a", "/b")
			require.NoError(t, err)

			assert.Equal(t, tt.wantFirst, ranked.Newest().Path)
			assert.Equal(t, tt.wantTied, ranked.Tied())
			assert.False(t, ranked.Newest().LastModified.Before(ranked.Oldest().LastModified))
			assert.Equal(t, []string{"/a", "/b"}, r.calls)
		})
	}
}

func TestBuilder_NewestIsFirstSource(t *testing.T) {
	r := &fakeResolver{times: map[string]time.Time{
		"/drive/Notes":  at(100),
		"/icloud/Notes": at(50),
	}}

	plan, err := NewBuilder(r, BuilderOptions{}).Build(context.Background(), "/icloud/Notes", "/drive/Notes/")
	require.NoError(t, err)

	assert.Equal(t, "/drive/Notes", plan.Ranked.Newest().Path)
	assert.Equal(t, "/icloud/Notes", plan.Ranked.Oldest().Path)

	first, second := plan.Invocations[0], plan.Invocations[1]
	assert.Equal(t, "rsync", first.Program)
	assert.Equal(t, "/drive/Notes/", first.Source)
	assert.Equal(t, "/icloud/Notes/", first.Destination)
	assert.Equal(t, []string{
		"-aE", "--delete", "--exclude", "**/*.DS_Store*",
		"/drive/Notes/", "/icloud/Notes/",
	}, first.Args)

	assert.Equal(t, "/icloud/Notes/", second.Source)
	assert.Equal(t, "/drive/Notes/", second.Destination)
	assert.Equal(t, first.flags, second.flags)
	assert.Equal(t, first, second.Reverse())
}

func TestBuilder_Options(t *testing.T) {
	r := &fakeResolver{times: map[string]time.Time{"/a": at(2), "/b": at(1)}}

	plan, err := NewBuilder(r, BuilderOptions{
		Program:  "/opt/homebrew/bin/rsync",
		Excludes: []string{".obsidian/workspace*.json", "**/*.DS_Store*", " ", ".obsidian/workspace*.json"},
		DryRun:   true,
	}).Build(context.Background(), "/a", "/b")
	require.NoError(t, err)

	for _, inv := range plan.Invocations {
		assert.Equal(t, "/opt/homebrew/bin/rsync", inv.Program)
		assert.Equal(t, []string{
			"-aE", "--delete", "--dry-run",
			"--exclude", "**/*.DS_Store*",
			"--exclude", ".obsidian/workspace*.json",
		}, inv.flags)
	}
}

func TestBuilder_ResolverErrorStopsBuild(t *testing.T) {
	r := &fakeResolver{times: map[string]time.Time{"/a": at(2)}}

	plan, err := NewBuilder(r, BuilderOptions{}).Build(context.Background(), "/a", "/missing")
	require.Error(t, err)
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, lastmod.ErrInvalidPath)
	assert.Contains(t, err.Error(), "/missing")
}

func TestBuilder_WithResolverOnMemFs(t *testing.T) {
	mfs := afero.NewMemMapFs()
	require.NoError(t, mfs.MkdirAll("/A", 0o755))
	require.NoError(t, mfs.MkdirAll("/B", 0o755))
	require.NoError(t, afero.WriteFile(mfs, "/A/note.md", []byte("x"), 0o644))
	require.NoError(t, mfs.Chtimes("/A", at(10), at(10)))
	require.NoError(t, mfs.Chtimes("/A/note.md", at(100), at(100)))
	require.NoError(t, mfs.Chtimes("/B", at(50), at(50)))

	builder := NewBuilder(lastmod.NewResolver(mfs), BuilderOptions{})

	plan, err := builder.Build(context.Background(), "/B", "/A")
	require.NoError(t, err)
	assert.Equal(t, "/A/", plan.Invocations[0].Source)
	assert.Equal(t, "/B/", plan.Invocations[0].Destination)
	assert.Equal(t, "/A/", plan.Invocations[1].Destination)

	// unchanged trees give the same plan
	again, err := builder.Build(context.Background(), "/B", "/A")
	require.NoError(t, err)
	assert.Equal(t, plan, again)

	_, err = builder.Build(context.Background(), "/A", "/nope")
	assert.ErrorIs(t, err, lastmod.ErrInvalidPath)
}

func TestPlan_String(t *testing.T) {
	r := &fakeResolver{times: map[string]time.Time{
		"/Users/me/Google Drive/Notes": at(2),
		"/Users/me/it's/Notes":         at(1),
	}}

	plan, err := NewBuilder(r, BuilderOptions{}).Build(context.Background(),
		"/Users/me/Google Drive/Notes", "/Users/me/it's/Notes")
	require.NoError(t, err)

	assert.Equal(t,
		`rsync -aE --delete --exclude '**/*.DS_Store*' '/Users/me/Google Drive/Notes/' '/Users/me/it'\''s/Notes/'`+
			` && `+
			`rsync -aE --delete --exclude '**/*.DS_Store*' '/Users/me/it'\''s/Notes/' '/Users/me/Google Drive/Notes/'`,
		plan.String())
}

func TestContentsOf(t *testing.T) {
	assert.Equal(t, "/a/b/", contentsOf("/a/b"))
	assert.Equal(t, "/a/b/", contentsOf("/a/b//"))
	assert.Equal(t, "/", contentsOf("/"))
}

func TestPathErrorSurvivesWrapping(t *testing.T) {
	r := &fakeResolver{}
	_, err := Rank(context.Background(), r, "/x", "/y")

	var pathErr *lastmod.PathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, "/x", pathErr.Path)
	assert.Equal(t, []string{"/x"}, r.calls, "second path is not resolved after a failure")
}
