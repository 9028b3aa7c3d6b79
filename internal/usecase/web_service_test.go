package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/karake-shoya/cheflens/internal/domain"
)

func newWebService(res *domain.WebResult, errOut error) *WebDetectionService {
	client := &mockClient{
		webFn: func(ctx context.Context, img []byte, maxResults int) (*domain.WebResult, error) {
			return res, errOut
		},
	}
	classifier, translator := newTestClassifier()
	return NewWebDetectionService(client, classifier, translator, testCatalog(), WebConfig{})
}

func TestWebDetect(t *testing.T) {
	ctx := context.Background()

	t.Run("best guess becomes a full-confidence candidate", func(t *testing.T) {
		svc := newWebService(&domain.WebResult{BestGuesses: []string{"Tomato"}}, nil)
		got, err := svc.Detect(ctx, []byte("img"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].Name != "トマト" || got[0].Score != 1.0 || got[0].Source != domain.SourceWeb {
			t.Errorf("candidates = %+v, want トマト at 1.0 from web source", got)
		}
	})

	t.Run("generic best guesses are screened out", func(t *testing.T) {
		svc := newWebService(&domain.WebResult{
			BestGuesses: []string{"Vegetable", "Food in refrigerator"},
		}, nil)
		got, err := svc.Detect(ctx, []byte("img"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("candidates = %+v, want none", got)
		}
	})

	t.Run("entities below the score threshold are dropped", func(t *testing.T) {
		svc := newWebService(&domain.WebResult{
			Entities: []domain.LabelResult{
				{Description: "Cabbage", Score: 0.9},
				{Description: "Carrot", Score: 0.4},
			},
		}, nil)
		got, err := svc.Detect(ctx, []byte("img"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := []string{"キャベツ"}; !reflect.DeepEqual(labelNames(got), want) {
			t.Errorf("names = %v, want %v", labelNames(got), want)
		}
	})

	t.Run("similar candidates keep only the higher scorer", func(t *testing.T) {
		svc := newWebService(&domain.WebResult{
			BestGuesses: []string{"Tomato"},
			Entities:    []domain.LabelResult{{Description: "Cherry tomato", Score: 0.8}},
		}, nil)
		got, err := svc.Detect(ctx, []byte("img"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := []string{"トマト"}; !reflect.DeepEqual(labelNames(got), want) {
			t.Errorf("names = %v, want %v", labelNames(got), want)
		}
	})

	t.Run("results come back in descending score order", func(t *testing.T) {
		svc := newWebService(&domain.WebResult{
			Entities: []domain.LabelResult{
				{Description: "Carrot", Score: 0.6},
				{Description: "Cabbage", Score: 0.9},
			},
		}, nil)
		got, err := svc.Detect(ctx, []byte("img"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := []string{"キャベツ", "にんじん"}; !reflect.DeepEqual(labelNames(got), want) {
			t.Errorf("names = %v, want %v", labelNames(got), want)
		}
	})

	t.Run("nil response yields no candidates", func(t *testing.T) {
		svc := newWebService(nil, nil)
		got, err := svc.Detect(ctx, []byte("img"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("candidates = %+v, want nil", got)
		}
	})

	t.Run("propagates client errors", func(t *testing.T) {
		svc := newWebService(nil, domain.ErrTransport)
		if _, err := svc.Detect(ctx, []byte("img")); !errors.Is(err, domain.ErrTransport) {
			t.Errorf("error = %v, want ErrTransport", err)
		}
	})
}

func TestIsTooGeneric(t *testing.T) {
	svc := newWebService(nil, nil)

	tests := []struct {
		label string
		want  bool
	}{
		{"vegetable", true},
		{"Fruits", true},
		{"food in refrigerator", true},
		{"natural foods", true},         // generic keyword without a specific food
		{"natural foods tomato", false}, // specific food rescues the keyword
		{"Помидор", true},               // foreign script, no native text
		{"トマト缶", false},
		{"Tomato", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := svc.isTooGeneric(tt.label); got != tt.want {
				t.Errorf("isTooGeneric(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}
