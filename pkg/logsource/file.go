package logsource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

const defaultPoll = 250 * time.Millisecond

// File follows a growing text file, like tail -F.
type File struct {
	name string
	path string

	// Poll is how often the file is checked for new data.
	Poll time.Duration
	// FromStart replays the existing contents before following.
	FromStart bool
}

// NewFile follows path, labelling each line with name.
func NewFile(name, path string) *File {
	return &File{name: name, path: path, Poll: defaultPoll}
}

func (f *File) Name() string { return f.name }

// Run reads new lines until ctx is done. A truncated file is read again
// from the start.
func (f *File) Run(ctx context.Context, sink Sink) error {
	fh, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	defer fh.Close()

	if !f.FromStart {
		if _, err := fh.Seek(0, io.SeekEnd); err != nil {
			return fmt.Errorf("seek %s: %w", f.path, err)
		}
	}

	poll := f.Poll
	if poll <= 0 {
		poll = defaultPoll
	}

	reader := bufio.NewReader(fh)
	var partial string
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			emit(sink, f.name, partial+line)
			partial = ""
			continue
		}
		// Keep an unterminated tail until its newline arrives.
		partial += line

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(poll):
		}

		info, serr := fh.Stat()
		if serr != nil {
			continue
		}
		pos, _ := fh.Seek(0, io.SeekCurrent)
		if info.Size() < pos {
			if _, err := fh.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("rewind %s: %w", f.path, err)
			}
			reader.Reset(fh)
			partial = ""
		}
	}
}
