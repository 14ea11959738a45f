package tickets

import "testing"

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to ongoing", StatusPending, StatusOngoing, true},
		{"pending to unsuccessful", StatusPending, StatusUnsuccessful, true},
		{"pending to complete", StatusPending, StatusComplete, false},
		{"ongoing to complete", StatusOngoing, StatusComplete, true},
		{"ongoing to unsuccessful", StatusOngoing, StatusUnsuccessful, true},
		{"ongoing to pending", StatusOngoing, StatusPending, false},
		{"complete is terminal", StatusComplete, StatusPending, false},
		{"complete to unsuccessful", StatusComplete, StatusUnsuccessful, false},
		{"unsuccessful is terminal", StatusUnsuccessful, StatusOngoing, false},
		{"unsuccessful to complete", StatusUnsuccessful, StatusComplete, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	if StatusPending.IsTerminal() || StatusOngoing.IsTerminal() {
		t.Error("live statuses must not be terminal")
	}
	if !StatusComplete.IsTerminal() || !StatusUnsuccessful.IsTerminal() {
		t.Error("final statuses must be terminal")
	}
}

func TestFormatTicketID(t *testing.T) {
	cases := []struct {
		purpose string
		number  int
		want    string
	}{
		{"payment", 7, "P007"},
		{"payment", 1, "P001"},
		{"clinic", 42, "C042"},
		{"registrar", 999, "R999"},
		{"guidance", 1000, "G1000"},
	}

	for _, tc := range cases {
		got := FormatTicketID(purposeOf(tc.purpose), tc.number)
		if got != tc.want {
			t.Errorf("FormatTicketID(%s, %d) = %s, want %s", tc.purpose, tc.number, got, tc.want)
		}
	}
}
