package collector

import (
	"testing"

	"jobradar/internal/model"
)

func TestDetectLevel(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        string
	}{
		{
			name:  "internship in title",
			title: "Software Engineering Intern",
			want:  model.LevelEntry,
		},
		{
			name:        "new graduate in description",
			title:       "Software Engineer",
			description: "Great fit for a new graduate joining our platform team.",
			want:        model.LevelEntry,
		},
		{
			name:  "entry-level hyphenated",
			title: "Entry-Level Accountant",
			want:  model.LevelEntry,
		},
		{
			name:  "senior title",
			title: "Senior Data Scientist",
			want:  model.LevelSenior,
		},
		{
			name:  "abbreviated senior",
			title: "Sr. Backend Engineer",
			want:  model.LevelSenior,
		},
		{
			name:  "director",
			title: "Director of Engineering",
			want:  model.LevelSenior,
		},
		{
			name:  "chief officer",
			title: "Chief Technology Officer",
			want:  model.LevelExecutive,
		},
		{
			name:  "executive keyword",
			title: "Executive Assistant",
			want:  model.LevelExecutive,
		},
		{
			name:  "entry beats senior when both present",
			title: "Internship with Senior Mentorship",
			want:  model.LevelEntry,
		},
		{
			name:  "plain title defaults to mid",
			title: "Field Service Technician",
			want:  model.LevelMid,
		},
		{
			name: "empty input defaults to mid",
			want: model.LevelMid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectLevel(tt.title, tt.description); got != tt.want {
				t.Errorf("DetectLevel(%q, %q) = %q, want %q", tt.title, tt.description, got, tt.want)
			}
		})
	}
}
