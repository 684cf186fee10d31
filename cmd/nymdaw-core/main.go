// Command nymdaw-core is a minimal host for the core: it pre-loads each
// path given on the command line as its own region on its own track, wires
// up a session, mixer, and a NullDriver, and reports the resulting track
// layout. It exists to exercise the core end-to-end; it has no other flags,
// per the core's external-interfaces contract.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nymdaw/nymdaw-core/internal/driver"
	"github.com/nymdaw/nymdaw-core/internal/loader"
	"github.com/nymdaw/nymdaw-core/internal/region"
	"github.com/nymdaw/nymdaw-core/internal/sequence"
	"github.com/nymdaw/nymdaw-core/internal/session"
)

const defaultSampleRate = 44100

func main() {
	flag.Parse()
	paths := flag.Args()

	setupCleanupOnExit()

	sess := session.New(defaultSampleRate)
	l := loader.DefaultLoader{}

	for i, path := range paths {
		if err := loadOntoNewTrack(sess, l, path, i); err != nil {
			log.Printf("could not load %s: %v", path, err)
			continue
		}
	}

	d := driver.Guard(driver.NewNullDriver(defaultSampleRate, 512))
	if err := d.Initialize(func(nframes int, outLeft, outRight []float32) {
		sess.Mixer().Process(nframes, outLeft, outRight)
	}); err != nil {
		log.Fatalf("could not initialize audio driver: %v", err)
	}
	defer d.Cleanup()

	for _, t := range sess.Tracks() {
		fmt.Printf("track %s: %d region(s)\n", t.Name(), len(t.Regions()))
	}
}

func loadOntoNewTrack(sess *session.Session, l loader.FileLoader, path string, index int) error {
	buf, err := l.Load(path, defaultSampleRate, nil)
	if err != nil {
		return err
	}
	seqID := fmt.Sprintf("seq-%d", index)
	seq, err := sequence.New(seqID, buf.SampleRate, buf.Channels, buf.Samples)
	if err != nil {
		return err
	}
	sess.AddSequence(seq)

	trackID := fmt.Sprintf("track-%d", index)
	t := sess.NewTrack(trackID, buf.Name, buf.SampleRate)

	regionID := fmt.Sprintf("region-%d", index)
	r, err := region.New(regionID, buf.Name, seq, 0, seq.NFrames(), 0)
	if err != nil {
		return err
	}
	t.AddRegion(r)
	sess.Mixer().ResizeIfNecessary(int64(r.GlobalEnd()))
	return nil
}

func setupCleanupOnExit() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-c
		os.Exit(0)
	}()
}
