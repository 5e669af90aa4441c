package turn

import "testing"

func TestComposePrompt_NoFacialEmotion(t *testing.T) {
	got := ComposePrompt("I feel tired", nil)
	want := "You are a compassionate therapist. The user says: 'I feel tired'. Respond empathetically and helpfully."
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestComposePrompt_WithFacialEmotion(t *testing.T) {
	got := ComposePrompt("hello", &FacialEmotion{Label: "HAPPY", Score: 97.32})
	want := "You are a compassionate therapist. The user says: 'hello'." +
		" The user's facial emotion appears to be happy (score: 97.32)." +
		" Respond empathetically and helpfully."
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestComposePrompt_UnknownEmotionOmitted(t *testing.T) {
	withFace := ComposePrompt("hello", &FacialEmotion{Label: "UNKNOWN", Error: "no face"})
	noFace := ComposePrompt("hello", nil)
	if withFace != noFace {
		t.Errorf("UNKNOWN judgment changed the prompt: %q", withFace)
	}
}

func TestComposePrompt_Deterministic(t *testing.T) {
	facial := &FacialEmotion{Label: "SAD", Score: 88.5}
	first := ComposePrompt("I feel low", facial)
	for i := 0; i < 5; i++ {
		if got := ComposePrompt("I feel low", facial); got != first {
			t.Fatalf("non-deterministic prompt on iteration %d: %q", i, got)
		}
	}
}
