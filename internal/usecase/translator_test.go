package usecase

import "testing"

func TestToDisplayName(t *testing.T) {
	cat := testCatalog()
	tr := NewTranslator(cat.Dictionary)

	t.Run("exact lookup is case insensitive", func(t *testing.T) {
		if got := tr.ToDisplayName("Tomato"); got != "トマト" {
			t.Errorf("ToDisplayName(Tomato) = %q, want トマト", got)
		}
	})

	t.Run("longest dictionary key wins on substring fallback", func(t *testing.T) {
		if got := tr.ToDisplayName("cherry tomato sauce"); got != "プチトマト" {
			t.Errorf("ToDisplayName = %q, want プチトマト", got)
		}
	})

	t.Run("unknown label passes through unchanged", func(t *testing.T) {
		if got := tr.ToDisplayName("dragonfruit"); got != "dragonfruit" {
			t.Errorf("ToDisplayName = %q, want dragonfruit", got)
		}
	})

	t.Run("display name input passes through", func(t *testing.T) {
		if got := tr.ToDisplayName("トマト"); got != "トマト" {
			t.Errorf("ToDisplayName = %q, want トマト", got)
		}
	})
}

func TestToSourceName(t *testing.T) {
	cat := testCatalog()
	tr := NewTranslator(cat.Dictionary)

	t.Run("reverse lookup finds the source label", func(t *testing.T) {
		source, ok := tr.ToSourceName("トマト")
		if !ok || source != "tomato" {
			t.Errorf("ToSourceName(トマト) = %q, %v, want tomato, true", source, ok)
		}
	})

	t.Run("round trip back to display", func(t *testing.T) {
		source, ok := tr.ToSourceName("キャベツ")
		if !ok {
			t.Fatal("ToSourceName(キャベツ) not found")
		}
		if got := tr.ToDisplayName(source); got != "キャベツ" {
			t.Errorf("round trip = %q, want キャベツ", got)
		}
	})

	t.Run("unknown display name reports false", func(t *testing.T) {
		if _, ok := tr.ToSourceName("ピザ"); ok {
			t.Error("ToSourceName(ピザ) = true, want false")
		}
	})
}
