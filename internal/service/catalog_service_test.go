package service

import (
	"bytes"
	"context"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"agri_training_backend/internal/model"
	"agri_training_backend/internal/util"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) (*CatalogService, string) {
	t.Helper()
	storage, root := newLocalStorage(t)
	return NewCatalogService(storage, NewQuizService(storage, nil)), root
}

func TestParseProgramAndCategory(t *testing.T) {
	p, err := ParseProgram(" Cotton ")
	require.NoError(t, err)
	assert.Equal(t, model.Cotton, p)

	_, err = ParseProgram("poultry")
	assert.True(t, util.IsValidation(err))

	c, err := ParseCategory("ppt")
	require.NoError(t, err)
	assert.Equal(t, model.Presentations, c)

	c, err = ParseCategory("Videos")
	require.NoError(t, err)
	assert.Equal(t, model.Videos, c)

	_, err = ParseCategory("podcasts")
	assert.True(t, util.IsValidation(err))
}

func TestAllowedExtensions(t *testing.T) {
	assert.True(t, AllowedExtension(model.Presentations, ".pptx"))
	assert.True(t, AllowedExtension(model.Presentations, ".png"))
	assert.False(t, AllowedExtension(model.Presentations, ".mp4"))
	assert.True(t, AllowedExtension(model.Videos, ".xlsx"))
	assert.False(t, AllowedExtension(model.Audios, ".json"))
	assert.True(t, AllowedExtension(model.Quizzes, ".json"))
}

func TestListMissingAndEmptyDirectories(t *testing.T) {
	svc, root := newCatalog(t)
	ctx := context.Background()

	listing, err := svc.List(ctx, model.Dairy, model.Videos)
	require.NoError(t, err)
	assert.True(t, listing.Empty)
	assert.Equal(t, NoticeNoContent, listing.Notice)
	assert.Empty(t, listing.Items)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "dairy", "videos"), 0755))
	// 不允许的扩展名不计入
	writeFile(t, root, "dairy/videos/readme.txt", []byte("x"))
	listing, err = svc.List(ctx, model.Dairy, model.Videos)
	require.NoError(t, err)
	assert.True(t, listing.Empty)
	assert.Equal(t, NoticeNoFiles, listing.Notice)
}

func TestListRendersEachKindInOrder(t *testing.T) {
	svc, root := newCatalog(t)
	ctx := context.Background()

	writeFile(t, root, "cotton/presentations/b-sowing.pptx", []byte("pptx"))
	writeFile(t, root, "cotton/presentations/a-soil.pdf", []byte("pdf"))
	writeFile(t, root, "cotton/presentations/c-field.png", []byte("png"))
	writeFile(t, root, "cotton/presentations/d-clip.mp4", []byte("mp4"))
	writeFile(t, root, "cotton/presentations/.hidden.pdf", []byte("x"))

	listing, err := svc.List(ctx, model.Cotton, model.Presentations)
	require.NoError(t, err)
	assert.False(t, listing.Empty)
	require.Len(t, listing.Items, 3)

	assert.Equal(t, "a-soil.pdf", listing.Items[0].Filename)
	assert.Equal(t, model.RenderDownload, listing.Items[0].Kind)
	assert.Equal(t, "b-sowing.pptx", listing.Items[1].Filename)
	assert.Equal(t, model.RenderImage, listing.Items[2].Kind)
	assert.Equal(t, "/api/catalog/cotton/presentations/files/c-field.png/preview", listing.Items[2].PreviewURL)
	assert.Equal(t, int64(3), listing.Items[0].Size)
}

func TestListSkipsInvalidQuizzes(t *testing.T) {
	svc, root := newCatalog(t)

	writeFile(t, root, "cotton/quizzes/soil.json", []byte(soilQuizJSON))
	writeFile(t, root, "cotton/quizzes/broken.json", []byte(`{"title": "x"}`))

	listing, err := svc.List(context.Background(), model.Cotton, model.Quizzes)
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	item := listing.Items[0]
	assert.Equal(t, model.RenderQuiz, item.Kind)
	require.NotNil(t, item.Quiz)
	assert.Equal(t, "Soil Basics", item.Quiz.Title)
	assert.Len(t, item.Quiz.Questions, 2)
}

func TestRenderDataFile(t *testing.T) {
	svc, root := newCatalog(t)
	writeFile(t, root, "dairy/audios/yields.json", []byte(`{"village": "Wardha", "litres": [12, 14]}`))

	item, ok := svc.Render(context.Background(), model.CatalogEntry{
		Program: model.Dairy, Category: model.Audios, Filename: "yields.json", Extension: ".json",
	})
	require.True(t, ok)
	assert.Equal(t, model.RenderData, item.Kind)
	data, ok := item.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Wardha", data["village"])

	writeFile(t, root, "dairy/audios/bad.json", []byte(`{`))
	_, ok = svc.Render(context.Background(), model.CatalogEntry{
		Program: model.Dairy, Category: model.Audios, Filename: "bad.json", Extension: ".json",
	})
	assert.False(t, ok)
}

func TestOverviewCountsFiles(t *testing.T) {
	svc, root := newCatalog(t)
	writeFile(t, root, "cotton/videos/a.mp4", []byte("a"))
	writeFile(t, root, "cotton/videos/b.mp4", []byte("b"))
	writeFile(t, root, "dairy/audios/milking.mp3", []byte("c"))

	summaries, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	counts := map[string]int{}
	for _, s := range summaries {
		require.Len(t, s.Categories, len(model.Categories))
		for _, c := range s.Categories {
			counts[string(s.Program)+"/"+string(c.Category)] = c.Count
		}
	}
	assert.Equal(t, 2, counts["cotton/videos"])
	assert.Equal(t, 1, counts["dairy/audios"])
	assert.Equal(t, 0, counts["cotton/quizzes"])
}

func TestOpenRestrictsExtensionsAndPaths(t *testing.T) {
	svc, root := newCatalog(t)
	writeFile(t, root, "cotton/audios/intro.mp3", []byte("ID3"))
	writeFile(t, root, "cotton/audios/notes.txt", []byte("secret"))
	ctx := context.Background()

	body, entry, err := svc.Open(ctx, model.Cotton, model.Audios, "intro.mp3")
	require.NoError(t, err)
	raw, err := io.ReadAll(body)
	body.Close()
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(raw))
	assert.Equal(t, int64(3), entry.Size)

	_, _, err = svc.Open(ctx, model.Cotton, model.Audios, "notes.txt")
	assert.ErrorIs(t, err, util.ErrNotFound)

	_, _, err = svc.Open(ctx, model.Cotton, model.Audios, "../videos/a.mp4")
	assert.True(t, util.IsValidation(err))

	_, _, err = svc.Open(ctx, model.Cotton, model.Audios, "missing.mp3")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestPreviewDownscalesOnly(t *testing.T) {
	svc, root := newCatalog(t)
	dir := filepath.Join(root, "cotton", "presentations")
	require.NoError(t, os.MkdirAll(dir, 0755))
	img := imaging.New(200, 100, color.NRGBA{R: 40, G: 160, B: 60, A: 255})
	require.NoError(t, imaging.Save(img, filepath.Join(dir, "field.png")))
	ctx := context.Background()

	out, entry, err := svc.Preview(ctx, model.Cotton, model.Presentations, "field.png", 50)
	require.NoError(t, err)
	assert.Equal(t, "field.png", entry.Filename)
	thumb, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, thumb.Bounds().Dx())
	assert.Equal(t, 25, thumb.Bounds().Dy())

	// 目标宽度大于原图时保持原尺寸
	out, _, err = svc.Preview(ctx, model.Cotton, model.Presentations, "field.png", 0)
	require.NoError(t, err)
	full, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, full.Bounds().Dx())

	_, _, err = svc.Preview(ctx, model.Cotton, model.Presentations, "deck.pdf", 100)
	assert.True(t, util.IsValidation(err))
}

func TestClampPreviewWidth(t *testing.T) {
	assert.Equal(t, PreviewDefaultWidth, ClampPreviewWidth(0))
	assert.Equal(t, PreviewMinWidth, ClampPreviewWidth(5))
	assert.Equal(t, PreviewMinWidth, ClampPreviewWidth(-10))
	assert.Equal(t, PreviewMaxWidth, ClampPreviewWidth(10000))
	assert.Equal(t, 640, ClampPreviewWidth(640))
}
