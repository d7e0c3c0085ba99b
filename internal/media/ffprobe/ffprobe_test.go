package ffprobe

import (
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", Width: 1920, Height: 1080},
		},
		Format: Format{Duration: "123.45"},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	stream, ok := result.VideoStream()
	if !ok {
		t.Fatal("expected a video stream")
	}
	if stream.Width != 1920 || stream.Height != 1080 {
		t.Fatalf("unexpected geometry: %dx%d", stream.Width, stream.Height)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestFrameCountPrefersNBFrames(t *testing.T) {
	stream := Stream{NBFrames: "360", Duration: "60", AvgFrameRate: "30/1"}
	if got := stream.FrameCount(); got != 360 {
		t.Fatalf("FrameCount = %d, want 360", got)
	}
}

func TestFrameCountFallsBackToRate(t *testing.T) {
	stream := Stream{Duration: "10", AvgFrameRate: "30000/1001"}
	if got := stream.FrameCount(); got != 300 {
		t.Fatalf("FrameCount = %d, want 300", got)
	}
}

func TestFrameRateParsing(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"30/1", 30},
		{"0/0", 0},
		{"", 0},
		{"garbage", 0},
		{"24", 24},
	}
	for _, tc := range cases {
		if got := (Stream{AvgFrameRate: tc.raw}).FrameRate(); got != tc.want {
			t.Fatalf("FrameRate(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestFrameCountUnknown(t *testing.T) {
	if got := (Stream{}).FrameCount(); got != 0 {
		t.Fatalf("FrameCount = %d, want 0 for unknown", got)
	}
}
