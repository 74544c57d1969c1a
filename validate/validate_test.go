package validate

import "testing"

type position struct {
	ID       string `json:"id" validate:"required,uuid4"`
	Position int    `json:"position" validate:"gte=1"`
}

type sample struct {
	Title string     `json:"title" validate:"required"`
	URL   string     `json:"videoUrl,omitempty" validate:"omitempty,url"`
	List  []position `json:"list" validate:"omitempty,unique=ID,dive"`
}

func TestCheck(t *testing.T) {
	id := GenerateID()

	tests := []struct {
		name string
		val  any
		msg  string
	}{
		{"valid", sample{Title: "Intro"}, ""},
		{"missing title", sample{}, "title is a required field"},
		{"bad url", &sample{Title: "Intro", URL: "not a url"}, "videoUrl must be a valid URL"},
		{"bad position", sample{Title: "Intro", List: []position{{ID: id, Position: 0}}}, "position must be 1 or greater"},
		{"duplicate ids", sample{Title: "Intro", List: []position{{ID: id, Position: 1}, {ID: id, Position: 2}}}, "list must contain unique values"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.val)
			if tt.msg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if err == nil || err.Error() != tt.msg {
				t.Fatalf("expected %q, got %v", tt.msg, err)
			}
		})
	}
}

func TestCheckID(t *testing.T) {
	if err := CheckID(GenerateID()); err != nil {
		t.Fatalf("generated id rejected: %v", err)
	}
	if err := CheckID("publish"); err == nil {
		t.Fatal("expected an error for a non uuid id")
	}
}
