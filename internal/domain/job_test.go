package domain

import "testing"

func TestResizeRequestValidate(t *testing.T) {
	valid := ResizeRequest{
		InputJPEG:     "aGVsbG8=",
		DesiredWidth:  100,
		DesiredHeight: 100,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}

	missingInput := ResizeRequest{DesiredWidth: 100, DesiredHeight: 100}
	if err := missingInput.Validate(); err == nil {
		t.Fatal("expected validation error for missing input_jpeg")
	}
}

func TestCreateResizeJobRequestValidate(t *testing.T) {
	valid := CreateResizeJobRequest{
		ResizeRequest: ResizeRequest{InputJPEG: "aGVsbG8=", DesiredWidth: 100, DesiredHeight: 100},
		WebhookURL:    "https://example.com/hooks/resize",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid request, got error: %v", err)
	}

	missingWebhook := CreateResizeJobRequest{
		ResizeRequest: ResizeRequest{InputJPEG: "aGVsbG8="},
	}
	if err := missingWebhook.Validate(); err == nil {
		t.Fatal("expected validation error for missing webhook_url")
	}

	relativeWebhook := CreateResizeJobRequest{
		ResizeRequest: ResizeRequest{InputJPEG: "aGVsbG8="},
		WebhookURL:    "/hooks/resize",
	}
	if err := relativeWebhook.Validate(); err == nil {
		t.Fatal("expected validation error for relative webhook_url")
	}
}
