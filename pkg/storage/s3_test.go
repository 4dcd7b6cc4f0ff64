package storage

import "testing"

func TestValidateResumeType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		want        bool
	}{
		{"pdf by content type", "application/pdf", "resume.bin", true},
		{"docx by content type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "cv", true},
		{"pdf by extension only", "application/octet-stream", "resume.pdf", true},
		{"doc by extension only", "", "resume.DOC", true},
		{"image rejected", "image/png", "resume.png", false},
		{"no hints", "", "resume", false},
		{"executable rejected", "application/x-msdownload", "resume.exe", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateResumeType(tt.contentType, tt.filename); got != tt.want {
				t.Errorf("ValidateResumeType(%q, %q) = %v, want %v", tt.contentType, tt.filename, got, tt.want)
			}
		})
	}
}

func TestResumeKey(t *testing.T) {
	got := ResumeKey("user-1", "My Resume.PDF")
	if got != "resumes/user-1.pdf" {
		t.Errorf("ResumeKey = %q, want resumes/user-1.pdf", got)
	}
}
