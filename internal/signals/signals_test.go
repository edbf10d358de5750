package signals

import "testing"

func TestNew_Defaults(t *testing.T) {
	s := New("ua")

	if !s.Visible() {
		t.Error("Visible() = false, want true")
	}
	if s.GameActive() {
		t.Error("GameActive() = true, want false")
	}
	if s.Muted() {
		t.Error("Muted() = true, want false")
	}
	if s.UserAgent() != "ua" {
		t.Errorf("UserAgent() = %q, want ua", s.UserAgent())
	}
}

func TestSetVisible_ReportsRegain(t *testing.T) {
	tests := []struct {
		name    string
		start   bool
		set     bool
		regain  bool
		visible bool
	}{
		{"hidden to visible", false, true, true, true},
		{"visible to visible", true, true, false, true},
		{"visible to hidden", true, false, false, false},
		{"hidden to hidden", false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New("")
			s.SetVisible(tt.start)

			if got := s.SetVisible(tt.set); got != tt.regain {
				t.Errorf("SetVisible(%v) = %v, want %v", tt.set, got, tt.regain)
			}
			if s.Visible() != tt.visible {
				t.Errorf("Visible() = %v, want %v", s.Visible(), tt.visible)
			}
		})
	}
}

func TestFlags(t *testing.T) {
	s := New("")
	s.SetGameActive(true)
	s.SetMuted(true)
	s.SetUserAgent("Mozilla/5.0 (iPhone)")

	if !s.GameActive() || !s.Muted() {
		t.Error("flags not stored")
	}
	if s.UserAgent() != "Mozilla/5.0 (iPhone)" {
		t.Errorf("UserAgent() = %q", s.UserAgent())
	}
}
