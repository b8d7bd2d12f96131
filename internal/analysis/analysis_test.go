package analysis

import (
	"testing"

	"github.com/ppiankov/keywatch/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name          string
		in            string
		caseSensitive bool
		want          string
	}{
		{"lowercase and punctuation", "Reentrancy-Attack, detected!", false, "reentrancy attack detected"},
		{"keeps hashtags and mentions", "#DeFi hack by @eve_99", false, "#defi hack by @eve_99"},
		{"collapses whitespace", "  a \t\n b  ", false, "a b"},
		{"case sensitive", "Hack THE Planet", true, "Hack THE Planet"},
		{"composes to NFC", "café ÜBER", false, "café über"},
		{"empty", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in, tt.caseSensitive); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSuffixStemmer(t *testing.T) {
	s := SuffixStemmer{}
	tests := map[string]string{
		"hacking":   "hack",
		"hacked":    "hack",
		"attacker":  "attack",
		"quickly":   "quick",
		"red":       "red", // too short to strip "ed"
		"sing":      "sing",
		"movement":  "move",
		"exploited": "exploit",
	}
	for in, want := range tests {
		if got := s.Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSnowballStemmer(t *testing.T) {
	s := NewStemmer("snowball")
	if got := s.Stem("running"); got != "run" {
		t.Errorf("Stem(running) = %q, want run", got)
	}
	if got := s.Stem("exploits"); got != "exploit" {
		t.Errorf("Stem(exploits) = %q, want exploit", got)
	}
}

func TestAnalyzer_Tokenize(t *testing.T) {
	cfg := model.DefaultConfig().Matching
	a := NewAnalyzer(cfg)

	tokens := a.Tokenize("found a flaw in the code")
	var texts []string
	for _, tok := range tokens {
		texts = append(texts, tok.Text)
	}
	want := []string{"found", "flaw", "in", "the", "code"}
	if len(texts) != len(want) {
		t.Fatalf("tokens = %v, want %v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, texts[i], want[i])
		}
		if tokens[i].Index != i {
			t.Errorf("token %d index = %d", i, tokens[i].Index)
		}
	}
	if tokens[1].Offset != 8 {
		t.Errorf("offset of flaw = %d, want 8", tokens[1].Offset)
	}
}

func TestAnalyzer_StopWordsAndStemming(t *testing.T) {
	cfg := model.DefaultConfig().Matching
	cfg.RemoveStopWords = true
	cfg.StemmingEnabled = true
	a := NewAnalyzer(cfg)

	tokens := a.Tokenize("the hackers were hacking the contract")
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %+v", tokens)
	}
	if tokens[1].Text != "hacking" || tokens[1].Stem != "hack" {
		t.Errorf("unexpected token %+v", tokens[1])
	}

	x := Token{Text: "hacked", Stem: "hack"}
	y := Token{Text: "hacking", Stem: "hack"}
	if !a.TokensMatch(x, y) {
		t.Error("stem-equal tokens should match with stemming on")
	}

	plain := NewAnalyzer(model.DefaultConfig().Matching)
	if plain.TokensMatch(x, y) {
		t.Error("stem-equal tokens should not match with stemming off")
	}
}
