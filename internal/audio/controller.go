package audio

import (
	"context"
	"io"
	"log"
	"sync"
)

// Controller enforces that at most one audio rendition plays at any instant.
// Starting a new rendition implicitly stops the previous one; the superseded
// rendition's state callback receives exactly one terminal StateStopped so
// the owning affordance can reset.
type Controller struct {
	source Source
	sink   Sink

	mu      sync.Mutex
	cancel  context.CancelFunc
	gen     int
	playing bool
}

// NewController constructs a playback controller. A nil sink discards audio.
func NewController(source Source, sink Sink) *Controller {
	if sink == nil {
		sink = NopSink{}
	}
	return &Controller{source: source, sink: sink}
}

// Play starts rendering the given audio reference. Any rendition already in
// flight is stopped first; there is no queueing. onState is invoked on every
// lifecycle transition of this rendition; on StateErrored the error argument
// carries a classified PlaybackError.
func (c *Controller) Play(ref string, onState func(State, error)) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.sink.Reset()
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.gen++
	gen := c.gen
	c.playing = true
	c.mu.Unlock()

	go c.run(ctx, gen, ref, onState)
}

// Stop cancels the current rendition if any. Safe to call when idle. The
// playing flag clears synchronously, so a state query issued right after Stop
// reports not-playing even while the rendition goroutine is still draining a
// stalled read.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
	c.playing = false
	c.sink.Reset()
	c.mu.Unlock()
}

// IsPlaying reports whether a rendition is currently in flight.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *Controller) run(ctx context.Context, gen int, ref string, onState func(State, error)) {
	emit := func(s State, err error) {
		if onState != nil {
			onState(s, err)
		}
	}

	emit(StateLoading, nil)

	rc, err := c.source.Fetch(ctx, ref)
	if err != nil {
		if ctx.Err() != nil {
			c.finish(gen)
			emit(StateStopped, nil)
			return
		}
		c.finish(gen)
		log.Printf("audio: fetch %s: %v", ref, err)
		emit(StateErrored, AsPlaybackError(err))
		return
	}
	defer rc.Close()

	emit(StatePlaying, nil)

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			c.finish(gen)
			emit(StateStopped, nil)
			return
		default:
		}
		n, rerr := rc.Read(buf)
		if n > 0 && ctx.Err() == nil {
			out := make([]byte, n)
			copy(out, buf[:n])
			c.sink.WriteAudio(out)
		}
		if rerr != nil {
			if ctx.Err() != nil {
				c.finish(gen)
				emit(StateStopped, nil)
				return
			}
			if rerr == io.EOF {
				c.sink.FlushTail()
				c.finish(gen)
				emit(StateEnded, nil)
				return
			}
			c.finish(gen)
			log.Printf("audio: stream %s: %v", ref, rerr)
			emit(StateErrored, AsPlaybackError(rerr))
			return
		}
	}
}

// finish clears the playing flag if this rendition is still the current one.
// A superseded rendition must not clobber its successor's state.
func (c *Controller) finish(gen int) {
	c.mu.Lock()
	if c.gen == gen {
		c.playing = false
		c.cancel = nil
	}
	c.mu.Unlock()
}
