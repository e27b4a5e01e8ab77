package ffmpeg

import (
	"context"
	"sync"
)

type fakeRunner struct {
	mu          sync.Mutex
	ffmpegCalls [][]string
	probeCalls  [][]string
	ffmpeg      func(args []string) RunResult
	ffprobe     func(args []string) RunResult
}

func (f *fakeRunner) RunFFmpeg(ctx context.Context, args ...string) RunResult {
	f.mu.Lock()
	f.ffmpegCalls = append(f.ffmpegCalls, args)
	f.mu.Unlock()
	if f.ffmpeg == nil {
		return RunResult{}
	}
	return f.ffmpeg(args)
}

func (f *fakeRunner) RunFFprobe(ctx context.Context, args ...string) RunResult {
	f.mu.Lock()
	f.probeCalls = append(f.probeCalls, args)
	f.mu.Unlock()
	if f.ffprobe == nil {
		return RunResult{}
	}
	return f.ffprobe(args)
}

func (f *fakeRunner) ffmpegCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ffmpegCalls)
}

const encodersOutput = `Encoders:
 V..... = Video
 A..... = Audio
 S..... = Subtitle
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
 V....D libvpx-vp9           libvpx VP9 (codec vp9)
 A....D aac                  AAC (Advanced Audio Coding)
 A....D libopus              libopus Opus (codec opus)
 S..... srt                  SubRip subtitle
`
