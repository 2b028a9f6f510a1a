package lingua

import (
	"testing"
)

func TestCaseInvariance(t *testing.T) {
	a := Preprocess("HOLA mundo", "es")
	b := Preprocess("hola Mundo", "es")
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("term %d differs: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestPreprocessingIdempotence(t *testing.T) {
	terms := Preprocess("corriendo corredores correr", "es")
	rejoined := ""
	for i, t2 := range terms {
		if i > 0 {
			rejoined += " "
		}
		rejoined += t2
	}
	again := Preprocess(rejoined, "es")
	if len(again) != len(terms) {
		t.Fatalf("idempotence broke length: %v -> %v", terms, again)
	}
	for i := range terms {
		if terms[i] != again[i] {
			t.Fatalf("stem of a stem changed: %q -> %q", terms[i], again[i])
		}
	}
}

func TestSpanishStemsGatoToGat(t *testing.T) {
	terms := Preprocess("el gato come pescado", "es")
	found := false
	for _, term := range terms {
		if term == "gat" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected stem \"gat\" in %v", terms)
	}
}

func TestStopwordRemoval(t *testing.T) {
	terms := Preprocess("el gato", "es")
	if len(terms) != 1 || terms[0] != "gat" {
		t.Fatalf("expected single term \"gat\" after stopword removal, got %v", terms)
	}
}

func TestEmptyQueryAllStopwords(t *testing.T) {
	terms := Preprocess("el la los", "es")
	if len(terms) != 0 {
		t.Fatalf("expected empty result, got %v", terms)
	}
}

func TestCatalanUsesSpanishProfile(t *testing.T) {
	profiles := NewProfiles()
	prof, err := profiles.Get("ca", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prof.Canonical != "spanish" {
		t.Fatalf("expected catalan to resolve to spanish profile, got %q", prof.Canonical)
	}
}

func TestUnknownLanguageStrictRejected(t *testing.T) {
	profiles := NewProfiles()
	if _, err := profiles.Get("xx", true); err == nil {
		t.Fatal("expected error for unknown language in strict mode")
	}
}

func TestUnknownLanguageLenientFallsBackToEnglish(t *testing.T) {
	profiles := NewProfiles()
	prof, err := profiles.Get("xx", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prof.Canonical != "english" {
		t.Fatalf("expected fallback to english, got %q", prof.Canonical)
	}
}

func TestProfilesCachedAcrossCalls(t *testing.T) {
	profiles := NewProfiles()
	a, _ := profiles.Get("es", true)
	b, _ := profiles.Get("es", true)
	if a != b {
		t.Fatal("expected same Profile instance to be cached and reused")
	}
}

func TestExtendStopwordsDoesNotLeakAcrossProfilesInstances(t *testing.T) {
	profiles := NewProfiles()
	if err := profiles.ExtendStopwords("es", []string{"empresa"}, true); err != nil {
		t.Fatal(err)
	}

	terms, _ := profiles.Preprocess("la empresa gato", "es", true)
	for _, term := range terms {
		if term == "empres" {
			t.Fatalf("expected \"empresa\" to be filtered as an overridden stopword, got %v", terms)
		}
	}

	other := NewProfiles()
	otherTerms, _ := other.Preprocess("la empresa gato", "es", true)
	found := false
	for _, term := range otherTerms {
		if term == "empres" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an unrelated Profiles instance to be unaffected by the override, got %v", otherTerms)
	}
}
