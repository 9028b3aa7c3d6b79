package usecase

import (
	"context"
	"fmt"
	"image"

	"github.com/karake-shoya/cheflens/internal/domain"
)

// testCatalog builds the catalog fixture shared by the usecase tests. It
// mirrors the shape of the shipped catalog with just enough entries to
// exercise every table.
func testCatalog() *domain.Catalog {
	return &domain.Catalog{
		Categories: map[string][]string{
			"vegetable": {"tomato", "cherry tomato", "cabbage", "lettuce", "carrot", "eggplant", "leaf vegetable", "green onion"},
			"fruit":     {"apple", "banana"},
			"meat":      {"chicken", "beef"},
			"seafood":   {"salmon", "mackerel", "tuna", "sardine", "fish"},
			"dairy":     {"milk", "egg", "cheese"},
			"staple":    {"rice", "bread"},
			"condiment": {"miso", "soy sauce"},
		},
		ConfidenceThreshold:       0.5,
		ObjectConfidenceThreshold: 0.5,
		MinCropSize:               50,
		ExcludeKeywords:           []string{"tableware", "refrigerator", "shelf", "bottle", "plastic"},
		GenericCategories:         []string{"food", "vegetable", "fruit", "produce", "ingredient", "dish", "cuisine", "meal", "salad"},
		GenericKeywords:           []string{"natural foods", "whole food", "local food", "superfood"},
		SimilarityGroups: []domain.SimilarityGroup{
			{Primary: "トマト", Synonyms: []string{"tomato", "cherry tomato", "プチトマト", "ミニトマト"}},
			{Primary: "さば水煮", Synonyms: []string{"さば缶", "鯖水煮", "mackerel"}},
			{Primary: "卵", Synonyms: []string{"egg", "たまご", "玉子"}},
		},
		Dictionary: map[string]string{
			"tomato":         "トマト",
			"cherry tomato":  "プチトマト",
			"cabbage":        "キャベツ",
			"lettuce":        "レタス",
			"carrot":         "にんじん",
			"eggplant":       "なす",
			"leaf vegetable": "葉物野菜",
			"green onion":    "ねぎ",
			"apple":          "りんご",
			"banana":         "バナナ",
			"chicken":        "鶏肉",
			"beef":           "牛肉",
			"salmon":         "鮭",
			"mackerel":       "さば",
			"tuna":           "ツナ",
			"sardine":        "いわし",
			"fish":           "魚",
			"milk":           "牛乳",
			"egg":            "卵",
			"cheese":         "チーズ",
			"rice":           "米",
			"bread":          "パン",
			"miso":           "味噌",
			"soy sauce":      "醤油",
		},
		TextPatterns: []domain.TextPattern{
			{Pattern: "さば.{0,2}水煮|サバ.{0,2}水煮|鯖.{0,2}水煮", Name: "さば水煮", Priority: 1},
			{Pattern: "さば.{0,2}味噌煮|サバ.{0,2}味噌煮", Name: "さば味噌煮", Priority: 2, SuppressedBy: []string{"さば水煮"}},
			{Pattern: "いわし.{0,2}水煮|イワシ.{0,2}水煮", Name: "いわし水煮", Priority: 3, SuppressedBy: []string{"さば水煮"}},
			{Pattern: "シーチキン|ツナ缶", Name: "ツナ缶", Priority: 4},
		},
		TextVariants: map[string]string{
			"玉子":  "卵",
			"たまご": "卵",
			"鯖":   "さば",
		},
		ProductKeywords:       []string{"内容量", "賞味期限", "原材料", "保存方法", "製造者"},
		FalsePositivePatterns: []string{"オリーブオイル漬"},
	}
}

func newTestClassifier() (*Classifier, *Translator) {
	cat := testCatalog()
	tr := NewTranslator(cat.Dictionary)
	return NewClassifier(cat, tr), tr
}

// mockClient implements domain.RecognitionClient with per-call function
// fields. Unset fields return empty results.
type mockClient struct {
	labelsFn  func(ctx context.Context, img []byte, maxResults int) ([]domain.LabelResult, error)
	objectsFn func(ctx context.Context, img []byte, maxResults int) ([]domain.DetectedRegion, error)
	webFn     func(ctx context.Context, img []byte, maxResults int) (*domain.WebResult, error)
	textFn    func(ctx context.Context, img []byte) (*domain.TextResult, error)
}

func (m *mockClient) DetectLabels(ctx context.Context, img []byte, maxResults int) ([]domain.LabelResult, error) {
	if m.labelsFn == nil {
		return nil, nil
	}
	return m.labelsFn(ctx, img, maxResults)
}

func (m *mockClient) LocalizeObjects(ctx context.Context, img []byte, maxResults int) ([]domain.DetectedRegion, error) {
	if m.objectsFn == nil {
		return nil, nil
	}
	return m.objectsFn(ctx, img, maxResults)
}

func (m *mockClient) DetectWeb(ctx context.Context, img []byte, maxResults int) (*domain.WebResult, error) {
	if m.webFn == nil {
		return &domain.WebResult{}, nil
	}
	return m.webFn(ctx, img, maxResults)
}

func (m *mockClient) DetectText(ctx context.Context, img []byte) (*domain.TextResult, error) {
	if m.textFn == nil {
		return &domain.TextResult{}, nil
	}
	return m.textFn(ctx, img)
}

// mockCropper implements domain.ImageCropper over a virtual fixed-size
// image. Crop bytes encode the box so tests can route per-region responses.
type mockCropper struct {
	pixelW, pixelH int
}

func newMockCropper() *mockCropper {
	return &mockCropper{pixelW: 1000, pixelH: 1000}
}

func (m *mockCropper) Load(data []byte) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, m.pixelW, m.pixelH)), nil
}

func (m *mockCropper) Crop(img image.Image, box domain.BoundingBox, minSize int) ([]byte, error) {
	w := int(box.Width() * float64(m.pixelW))
	h := int(box.Height() * float64(m.pixelH))
	if w <= 0 || h <= 0 {
		return nil, domain.ErrImageProcessing
	}
	if w < minSize || h < minSize {
		return nil, fmt.Errorf("%w: %dx%d", domain.ErrCropTooSmall, w, h)
	}
	return []byte(fmt.Sprintf("crop(%.2f,%.2f,%.2f,%.2f)", box.X0, box.Y0, box.X1, box.Y1)), nil
}
