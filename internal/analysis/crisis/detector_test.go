package crisis

import "testing"

func TestDetectHighSeverity(t *testing.T) {
	result := NewDetector(nil).Detect("Honestly I just want to die, I'm so tired.")
	if !result.Triggered || result.Severity != High {
		t.Fatalf("expected high triggered result, got %+v", result)
	}
	if len(result.Keywords) != 1 || result.Keywords[0] != "want to die" {
		t.Fatalf("unexpected keywords: %v", result.Keywords)
	}
}

func TestDetectHighestBucketWins(t *testing.T) {
	result := NewDetector(nil).Detect("I feel hopeless and depressed, thinking about suicide")
	if result.Severity != High {
		t.Fatalf("expected high severity, got %s", result.Severity)
	}
	if len(result.Keywords) != 3 {
		t.Fatalf("expected all three matches, got %v", result.Keywords)
	}
}

func TestDetectApostropheNormalisation(t *testing.T) {
	result := NewDetector(nil).Detect("I can't take it anymore")
	if !result.Triggered || result.Severity != Medium {
		t.Fatalf("expected medium triggered result, got %+v", result)
	}
}

func TestDetectWordBoundaries(t *testing.T) {
	result := NewDetector(nil).Detect("Started a new diet and feel aloneness is a strange word")
	if result.Triggered {
		t.Fatalf("unexpected trigger: %+v", result)
	}
	if result.Severity != Low {
		t.Fatalf("expected low severity, got %s", result.Severity)
	}
}

func TestDetectEmptyText(t *testing.T) {
	result := NewDetector(nil).Detect("   ")
	if result.Triggered || result.Severity != Low {
		t.Fatalf("unexpected result for empty text: %+v", result)
	}
}

func TestDetectExtraKeywords(t *testing.T) {
	d := NewDetector(map[Severity][]string{
		High:            {"Jump off the bridge"},
		Severity("bad"): {"ignored"},
	})
	result := d.Detect("thinking I should jump off the bridge tonight")
	if result.Severity != High || !result.Triggered {
		t.Fatalf("expected extra high keyword to trigger, got %+v", result)
	}
	if d.Detect("ignored").Triggered {
		t.Fatal("unknown severity bucket must be dropped")
	}
}

func TestDetectAloneNeedsDistressContext(t *testing.T) {
	d := NewDetector(nil)
	if result := d.Detect("I'm not alone anymore, my sister visited"); result.Triggered {
		t.Fatalf("unexpected trigger: %+v", result)
	}
	result := d.Detect("Lately I feel so alone at night")
	if !result.Triggered || result.Severity != Low {
		t.Fatalf("expected low trigger, got %+v", result)
	}
}
